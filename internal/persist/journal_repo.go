package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Journal actions.
const (
	ActionPlace   = "place"
	ActionReclaim = "reclaim"
)

// JournalEntry records one placement or reclaim of a segment.
type JournalEntry struct {
	Lane       string
	Action     string // ActionPlace or ActionReclaim
	Template   string
	InstanceID uint64
	X          float64
	Tick       uint64
}

// PoolSnapshot is the per-template pool accounting of one lane.
type PoolSnapshot struct {
	Lane        string
	Template    string
	Constructed int
	Active      int
	Pooled      int
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Write stores a batch of journal entries in a single transaction: either
// the whole batch lands or none of it does.
func (r *JournalRepo) Write(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO segment_journal (lane, action, template, instance_id, position_x, tick)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.Lane, e.Action, e.Template, int64(e.InstanceID), e.X, int64(e.Tick),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return tx.Commit(ctx)
}

// SaveSnapshots upserts the latest pool accounting per lane and template.
func (r *JournalRepo) SaveSnapshots(ctx context.Context, snaps []PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range snaps {
		batch.Queue(
			`INSERT INTO pool_snapshot (lane, template, constructed, active, pooled, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now())
			 ON CONFLICT (lane, template) DO UPDATE
			 SET constructed = EXCLUDED.constructed, active = EXCLUDED.active,
			     pooled = EXCLUDED.pooled, updated_at = now()`,
			s.Lane, s.Template, s.Constructed, s.Active, s.Pooled,
		)
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save pool snapshots: %w", err)
	}
	return nil
}

// MaxTick returns the highest tick journaled for lane, or 0.
func (r *JournalRepo) MaxTick(ctx context.Context, lane string) (uint64, error) {
	var tick int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(tick), 0) FROM segment_journal WHERE lane = $1`, lane,
	).Scan(&tick)
	if err != nil {
		return 0, fmt.Errorf("query max tick: %w", err)
	}
	return uint64(tick), nil
}
