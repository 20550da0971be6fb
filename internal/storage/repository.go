// Package storage archives scan runs and their events to PostgreSQL.
// The archive is optional: the scan works end to end without a DSN and
// CSV remains the canonical output.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertScanRunSQL = `INSERT INTO scan_runs (
        run_id,
        start_date,
        end_date,
        max_market_cap,
        companies,
        found,
        small_caps,
        started_at,
        finished_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    );`

	upsertEventSQL = `INSERT INTO delisting_events (
        run_id,
        ticker,
        company_name,
        cik,
        exchange,
        form_type,
        filing_date,
        accession_number,
        primary_document,
        market_cap,
        market_cap_source,
        small_cap
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    )
    ON CONFLICT (run_id, ticker, accession_number) DO UPDATE
    SET market_cap        = EXCLUDED.market_cap,
        market_cap_source = EXCLUDED.market_cap_source,
        small_cap         = EXCLUDED.small_cap;`

	listRecentEventsSQL = `SELECT
        run_id,
        ticker,
        company_name,
        cik,
        exchange,
        form_type,
        filing_date,
        accession_number,
        primary_document,
        market_cap,
        market_cap_source,
        small_cap,
        created_at
    FROM delisting_events
    ORDER BY created_at DESC, filing_date DESC
    LIMIT $1;`

	countEventsSQL = `SELECT COUNT(*) FROM delisting_events;`
)

// EventStore defines operations for archiving collection results.
type EventStore interface {
	InsertScanRun(ctx context.Context, run ScanRun) error
	UpsertEvents(ctx context.Context, events []EventRecord) error
	ListRecentEvents(ctx context.Context, limit int) ([]EventRecord, error)
	CountEvents(ctx context.Context) (int64, error)
}

// Store aggregates access to scan runs and archived events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertScanRun persists the run summary row.
func (s *Store) InsertScanRun(ctx context.Context, run ScanRun) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, execErr := pool.Exec(ctx, insertScanRunSQL,
		run.RunID,
		run.StartDate,
		run.EndDate,
		run.MaxMarketCap.String(),
		run.Companies,
		run.Found,
		run.SmallCaps,
		run.StartedAt,
		run.FinishedAt,
	); execErr != nil {
		return fmt.Errorf("insert scan run: %w", execErr)
	}
	return nil
}

// UpsertEvents archives the events of a run.
func (s *Store) UpsertEvents(ctx context.Context, events []EventRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, event := range events {
		var mc interface{}
		if event.MarketCap != nil {
			mc = event.MarketCap.String()
		}
		batch.Queue(upsertEventSQL,
			event.RunID,
			event.Ticker,
			event.CompanyName,
			event.CIK,
			event.Exchange,
			event.FormType,
			event.FilingDate,
			event.AccessionNumber,
			event.PrimaryDocument,
			mc,
			event.MarketCapSource,
			event.SmallCap,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert event: %w", execErr)
		}
	}
	return nil
}

// ListRecentEvents lists the most recently archived events.
func (s *Store) ListRecentEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentEventsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]EventRecord, 0, limit)
	for rows.Next() {
		event, scanErr := scanEventRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// CountEvents counts archived events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countEventsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count events: %w", scanErr)
	}
	return count, nil
}

func scanEventRecord(rows pgx.Rows) (EventRecord, error) {
	var (
		event     EventRecord
		mcStr     sql.NullString
		createdAt time.Time
	)

	if err := rows.Scan(
		&event.RunID,
		&event.Ticker,
		&event.CompanyName,
		&event.CIK,
		&event.Exchange,
		&event.FormType,
		&event.FilingDate,
		&event.AccessionNumber,
		&event.PrimaryDocument,
		&mcStr,
		&event.MarketCapSource,
		&event.SmallCap,
		&createdAt,
	); err != nil {
		return EventRecord{}, err
	}

	if mcStr.Valid {
		mc, convErr := decimal.NewFromString(mcStr.String)
		if convErr != nil {
			return EventRecord{}, fmt.Errorf("parse market cap: %w", convErr)
		}
		event.MarketCap = &mc
	}
	event.CreatedAt = createdAt

	return event, nil
}

var _ EventStore = (*Store)(nil)
