package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/ports"

	"github.com/jmoiron/sqlx"
)

// StrategyRepository implements ports.StrategyRepository.
type StrategyRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStrategyRepository creates a snapshot repository over db.
func NewStrategyRepository(db *sqlx.DB) *StrategyRepository {
	return &StrategyRepository{db: db, now: time.Now}
}

var _ ports.StrategyRepository = (*StrategyRepository)(nil)

type snapshotRow struct {
	ID          string `db:"id"`
	Fingerprint string `db:"fingerprint"`
	Document    string `db:"document"`
	CreatedAtMS int64  `db:"created_at_ms"`
}

const snapshotColumns = `id, fingerprint, document, created_at_ms`

// Save stores ws unless an identical snapshot for the constituency exists.
func (r *StrategyRepository) Save(ctx context.Context, ws *strategy.WinningStrategy) (*ports.StrategySnapshot, error) {
	fp, err := ws.Fingerprint()
	if err != nil {
		return nil, err
	}

	var existing snapshotRow
	err = r.db.GetContext(ctx, &existing, r.db.Rebind(`SELECT `+snapshotColumns+`
		FROM strategy_snapshots WHERE constituency_id = ? AND fingerprint = ?`),
		ws.ConstituencyID.String(), fp.String())
	switch {
	case err == nil:
		return decodeSnapshot(existing)
	case !stderrors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup snapshot %s: %w", ws.ConstituencyID, err)
	}

	doc, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("encode strategy %s: %w", ws.ConstituencyID, err)
	}
	snap := &ports.StrategySnapshot{
		ID:          core.NewSnapshotID(),
		Fingerprint: fp,
		CreatedAt:   time.UnixMilli(r.now().UnixMilli()).UTC(),
		Strategy:    ws.Clone(),
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO strategy_snapshots (id, constituency_id, fingerprint, status, priority_score, document, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		snap.ID.String(), ws.ConstituencyID.String(), fp.String(), string(ws.Status), ws.PriorityScore,
		string(doc), snap.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert snapshot %s: %w", ws.ConstituencyID, err)
	}
	return snap, nil
}

// Latest returns the newest snapshot for id.
func (r *StrategyRepository) Latest(ctx context.Context, id core.ConstituencyID) (*ports.StrategySnapshot, error) {
	snaps, err := r.History(ctx, id, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w for %s", core.ErrSnapshotNotFound, id)
	}
	return snaps[0], nil
}

// History returns up to limit snapshots for id, newest first.
func (r *StrategyRepository) History(ctx context.Context, id core.ConstituencyID, limit int) ([]*ports.StrategySnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []snapshotRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT `+snapshotColumns+`
		FROM strategy_snapshots WHERE constituency_id = ?
		ORDER BY created_at_ms DESC, id DESC LIMIT ?`), id.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots %s: %w", id, err)
	}
	out := make([]*ports.StrategySnapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := decodeSnapshot(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func decodeSnapshot(row snapshotRow) (*ports.StrategySnapshot, error) {
	var ws strategy.WinningStrategy
	if err := json.Unmarshal([]byte(row.Document), &ws); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", row.ID, err)
	}
	return &ports.StrategySnapshot{
		ID:          core.SnapshotID(row.ID),
		Fingerprint: core.Hash(row.Fingerprint),
		CreatedAt:   time.UnixMilli(row.CreatedAtMS).UTC(),
		Strategy:    &ws,
	}, nil
}
