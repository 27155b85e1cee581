// Package filesystem hands trace request files to the tracing partner and
// collects traced files back through shared inbox and outbox folders.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

var _ driven.Exchange = (*Exchange)(nil)

// Exchange moves files through the tracing inbox and outbox.
type Exchange struct {
	inbox  string
	outbox string
}

// New creates an Exchange over the given folders.
func New(inbox, outbox string) *Exchange {
	return &Exchange{inbox: inbox, outbox: outbox}
}

// Deliver moves localPath into the inbox and returns its new path.
func (e *Exchange) Deliver(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.inbox, 0755); err != nil {
		return "", fmt.Errorf("create inbox: %w", err)
	}

	dest := filepath.Join(e.inbox, filepath.Base(localPath))
	err := os.Rename(localPath, dest)
	if errors.Is(err, syscall.EXDEV) {
		// Inbox is usually a network share
		if err = copyFile(localPath, dest); err == nil {
			err = os.Remove(localPath)
		}
	}
	if err != nil {
		return "", fmt.Errorf("move %s to inbox: %w", localPath, err)
	}
	return dest, nil
}

// Collect copies the outbox file whose name contains match into dir.
// When several match, the most recently modified wins.
func (e *Exchange) Collect(ctx context.Context, match, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(e.outbox)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: outbox %s does not exist", domain.ErrTracedFileNotFound, e.outbox)
		}
		return "", fmt.Errorf("read outbox: %w", err)
	}

	type candidate struct {
		name string
		info os.FileInfo
	}
	var found []candidate
	for _, entry := range entries {
		if entry.IsDir() || !matchesName(entry.Name(), match) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{name: entry.Name(), info: info})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: no outbox file matches %q", domain.ErrTracedFileNotFound, match)
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].info.ModTime().Equal(found[j].info.ModTime()) {
			return found[i].name > found[j].name
		}
		return found[i].info.ModTime().After(found[j].info.ModTime())
	})
	if len(found) > 1 {
		logger.Warn("%d outbox files match %q, using %s", len(found), match, found[0].name)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	dest := filepath.Join(dir, found[0].name)
	if err := copyFile(filepath.Join(e.outbox, found[0].name), dest); err != nil {
		return "", fmt.Errorf("copy traced file: %w", err)
	}
	return dest, nil
}

// matchesName reports whether name contains match not directly followed by a
// digit, so part _1 does not pick up part _10.
func matchesName(name, match string) bool {
	for i := 0; ; {
		j := strings.Index(name[i:], match)
		if j < 0 {
			return false
		}
		end := i + j + len(match)
		if end == len(name) || name[end] < '0' || name[end] > '9' {
			return true
		}
		i += j + 1
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
