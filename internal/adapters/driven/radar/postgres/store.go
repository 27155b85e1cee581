// Package postgres provides the Radar store: the patient query used by stage 1
// and the transactional date of death corrections applied by stage 2.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// Compile-time contract assertions.
var (
	_ driven.RadarStore      = (*Store)(nil)
	_ driven.CorrectionBatch = (*correctionBatch)(nil)
)

const (
	defaultDriver = "pgx"
	dateLayout    = "2006-01-02"
)

// updateDateOfDeath only touches manually entered (RADAR sourced) demographics.
const updateDateOfDeath = `UPDATE patient_demographics
	SET date_of_death = $1, modified_user_id = $2, modified_date = NOW()
	WHERE patient_id = $3 AND source_type = 'RADAR'`

//go:embed radar_patients.sql
var defaultPatientQuery string

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Options configures a Store.
type Options struct {
	// DSN is a pgx connection string. Empty defers to the PG* environment variables.
	DSN string

	// PatientQueryFile overrides the embedded patient query.
	PatientQueryFile string

	// TraceUserID is the Radar user corrections are attributed to.
	TraceUserID int64
}

// Store is a Postgres-backed driven.RadarStore.
type Store struct {
	db     *sql.DB
	query  string
	userID int64
}

// NewStore connects to Radar and checks the connection.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	query := defaultPatientQuery
	if opts.PatientQueryFile != "" {
		data, err := os.ReadFile(opts.PatientQueryFile)
		if err != nil {
			return nil, fmt.Errorf("read patient query: %w", err)
		}
		query = string(data)
	}

	openMu.Lock()
	db, err := sqlOpen(defaultDriver, opts.DSN)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: open radar: %v", domain.ErrRadarUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping radar: %v", domain.ErrRadarUnavailable, err)
	}
	return &Store{db: db, query: query, userID: opts.TraceUserID}, nil
}

// FetchPatients runs the patient query and returns rows in AuditFields order.
// Commas are stripped from text values and dates rendered as YYYY-MM-DD.
func (s *Store) FetchPatients(ctx context.Context) ([]domain.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("patient columns: %w", err)
	}
	if len(cols) != len(domain.AuditFields) {
		return nil, fmt.Errorf("%w: patient query returns %d columns, want %d",
			domain.ErrInvalidInput, len(cols), len(domain.AuditFields))
	}

	var records []domain.SourceRecord
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		values := make([]string, len(raw))
		for i, v := range raw {
			values[i] = cell(v)
		}
		records = append(records, domain.SourceRecord{Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}
	return records, nil
}

// cell renders one query value as an audit file cell.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(x, ",", "")
	case []byte:
		return strings.ReplaceAll(string(x), ",", "")
	case time.Time:
		return x.Format(dateLayout)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.ReplaceAll(fmt.Sprint(x), ",", "")
	}
}

// BeginCorrections opens the pass's write transaction.
func (s *Store) BeginCorrections(ctx context.Context) (driven.CorrectionBatch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrRadarUnavailable, err)
	}
	return &correctionBatch{tx: tx, userID: s.userID}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// correctionBatch applies corrections inside one transaction.
type correctionBatch struct {
	tx     *sql.Tx
	userID int64
	writes int
}

// SetDateOfDeath queues the update in the transaction.
func (b *correctionBatch) SetDateOfDeath(ctx context.Context, patientID, dateOfDeath string) error {
	id, err := strconv.ParseInt(patientID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: patient id %q", domain.ErrInvalidInput, patientID)
	}
	dod, err := time.Parse(dateLayout, dateOfDeath)
	if err != nil {
		return fmt.Errorf("%w: date of death %q", domain.ErrInvalidInput, dateOfDeath)
	}

	res, err := b.tx.ExecContext(ctx, updateDateOfDeath, dod, b.userID, id)
	if err != nil {
		return fmt.Errorf("update date of death: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Warn("Patient %s has no RADAR demographics row; date of death not set", patientID)
	}
	b.writes++
	return nil
}

// Commit commits the transaction.
func (b *correctionBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return err
	}
	logger.Info("Committed %d date of death corrections", b.writes)
	return nil
}

// Rollback discards the transaction. It is a no-op after Commit.
func (b *correctionBatch) Rollback() error {
	err := b.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
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
