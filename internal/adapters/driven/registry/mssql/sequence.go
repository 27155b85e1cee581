// Package mssql reads tracing batch numbers from the RR SQL Server database.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sync"

	_ "github.com/microsoft/go-mssqldb" // register the sqlserver database/sql driver

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

var _ driven.RequestSequence = (*Sequence)(nil)

const (
	defaultDriver   = "sqlserver"
	defaultSequence = "SEQ_NHS_Tracing_Batch"
)

var sequenceName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Credentials locate the RR database. Environment variable names match
// the ones the RR team hands out.
type Credentials struct {
	Host     string // MSHOST
	Server   string // MSSERVER, an instance name when set
	User     string // MSUSER
	Password string // MSPASSWORD
	Database string // MSDATABASE
}

// CredentialsFromEnv reads Credentials from the MS* environment variables.
func CredentialsFromEnv() Credentials {
	return Credentials{
		Host:     os.Getenv("MSHOST"),
		Server:   os.Getenv("MSSERVER"),
		User:     os.Getenv("MSUSER"),
		Password: os.Getenv("MSPASSWORD"),
		Database: os.Getenv("MSDATABASE"),
	}
}

// DSN renders the credentials as a sqlserver:// URL.
func (c Credentials) DSN() string {
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   c.Host,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.Server != "" && c.Server != c.Host {
		u.Path = "/" + c.Server
	}
	q := url.Values{}
	if c.Database != "" {
		q.Set("database", c.Database)
	}
	q.Set("app name", "radar-trace")
	u.RawQuery = q.Encode()
	return u.String()
}

// Sequence hands out RR tracing batch numbers from a SQL Server sequence.
type Sequence struct {
	db    *sql.DB
	query string
}

// NewSequence connects to RR. An empty name uses SEQ_NHS_Tracing_Batch.
func NewSequence(ctx context.Context, creds Credentials, name string) (*Sequence, error) {
	if name == "" {
		name = defaultSequence
	}
	if !sequenceName.MatchString(name) {
		return nil, fmt.Errorf("%w: sequence name %q", domain.ErrInvalidInput, name)
	}

	openMu.Lock()
	db, err := sqlOpen(defaultDriver, creds.DSN())
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: open rr: %v", domain.ErrRegistryUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping rr: %v", domain.ErrRegistryUnavailable, err)
	}
	return &Sequence{db: db, query: "SELECT NEXT VALUE FOR " + name}, nil
}

// NextRequestNumber draws the next value of the sequence.
func (s *Sequence) NextRequestNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: next request number: %v", domain.ErrRegistryUnavailable, err)
	}
	return n, nil
}

// Close closes the connection pool.
func (s *Sequence) Close() error {
	return s.db.Close()
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
