// Package analytics implements the out-of-scope "analytics upload"
// collaborator of spec.md §1: a fire-and-forget, batched uploader of
// per-hit rows to ClickHouse for offline aggregate analysis. It is
// never consulted synchronously by internal/encounter — Record only
// enqueues, and a background flush loop owns the actual insert, so a
// slow or down ClickHouse instance never stalls packet processing
// (spec §5, §7).
//
// Grounded on MOHCentral-opm-stats-api/internal/worker.Pool's
// PrepareBatch/Append/Send batching idiom, simplified to this engine's
// single hit-row shape (the teacher batches many different MOHAA event
// kinds into one wide row; here every row is a skill-damage hit).
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// HitRow is one recorded skill-damage hit, denormalized for ClickHouse's
// columnar analysis (spec §4.5.1's damage attribution feeds this).
type HitRow struct {
	EncounterID   int64
	TimestampMs   int64
	SourceName    string
	TargetName    string
	SkillID       int64
	SkillEffectID int64
	Damage        int64
	Crit          bool
	Back          bool
	Front         bool
}

// Options configures the uploader's connection and batching cadence.
type Options struct {
	Addr     []string
	Database string
	Username string
	Password string

	BatchSize     int
	FlushInterval time.Duration
}

// DefaultOptions mirrors the teacher's worker pool defaults: small
// batches flushed frequently rather than large infrequent ones, so a
// crash loses at most one flush interval of rows.
func DefaultOptions() Options {
	return Options{
		Database:      "raidtrack",
		Username:      "default",
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
	}
}

// Uploader batches HitRows and flushes them to ClickHouse on a timer or
// when the buffer fills, whichever comes first.
type Uploader struct {
	conn driver.Conn
	log  *slog.Logger
	opts Options

	rowCh chan HitRow
}

// Connect opens a ClickHouse connection and returns an Uploader ready
// to have Run started in its own goroutine.
func Connect(opts Options, log *slog.Logger) (*Uploader, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: opts.Addr,
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}
	return New(conn, opts, log), nil
}

// New wraps an already-open driver.Conn, primarily for tests against a
// mock connection.
func New(conn driver.Conn, opts Options, log *slog.Logger) *Uploader {
	if log == nil {
		log = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultOptions().FlushInterval
	}
	return &Uploader{
		conn:  conn,
		log:   log,
		opts:  opts,
		rowCh: make(chan HitRow, opts.BatchSize*4),
	}
}

// Record enqueues row for upload, never blocking the caller: a full
// buffer drops the row and logs, matching this collaborator's
// fire-and-forget contract.
func (u *Uploader) Record(row HitRow) {
	select {
	case u.rowCh <- row:
	default:
		u.log.Warn("analytics: row buffer full, dropping hit", "encounter_id", row.EncounterID)
	}
}

// Run drains rowCh, batching up to BatchSize rows or FlushInterval,
// whichever comes first, until ctx is cancelled. Any buffered rows are
// flushed one last time before returning.
func (u *Uploader) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]HitRow, 0, u.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := u.send(ctx, batch); err != nil {
			u.log.Warn("analytics: flush failed", "rows", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case row := <-u.rowCh:
			batch = append(batch, row)
			if len(batch) >= u.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (u *Uploader) send(ctx context.Context, rows []HitRow) error {
	batch, err := u.conn.PrepareBatch(ctx, `
		INSERT INTO raidtrack_hits (
			encounter_id, timestamp_ms, source_name, target_name,
			skill_id, skill_effect_id, damage, crit, back, front
		)
	`)
	if err != nil {
		return fmt.Errorf("preparing batch: %w", err)
	}

	for _, row := range rows {
		if err := batch.Append(
			row.EncounterID, row.TimestampMs, row.SourceName, row.TargetName,
			row.SkillID, row.SkillEffectID, row.Damage, row.Crit, row.Back, row.Front,
		); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}
	return nil
}
