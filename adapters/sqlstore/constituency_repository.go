package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/ports"

	"github.com/jmoiron/sqlx"
)

// ConstituencyRepository implements ports.ConstituencyStore.
type ConstituencyRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewConstituencyRepository creates a record store over db.
func NewConstituencyRepository(db *sqlx.DB) *ConstituencyRepository {
	return &ConstituencyRepository{db: db, now: time.Now}
}

var _ ports.ConstituencyStore = (*ConstituencyRepository)(nil)

type recordRow struct {
	ID     string `db:"id"`
	Record string `db:"record"`
}

// GetRecord loads one record by id.
func (r *ConstituencyRepository) GetRecord(ctx context.Context, id core.ConstituencyID) (*constituency.Record, error) {
	var row recordRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, record FROM constituency_records WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.NewUnknownConstituencyError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get constituency %s: %w", id, err)
	}
	return decodeRecord(row)
}

// ListByRegion returns every record in region ordered by id.
func (r *ConstituencyRepository) ListByRegion(ctx context.Context, region string) ([]*constituency.Record, error) {
	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind(`SELECT id, record FROM constituency_records WHERE region = ? ORDER BY id`), region)
	if err != nil {
		return nil, fmt.Errorf("list region %s: %w", region, err)
	}
	out := make([]*constituency.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListIDs returns every stored id in order.
func (r *ConstituencyRepository) ListIDs(ctx context.Context) ([]core.ConstituencyID, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM constituency_records ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list constituency ids: %w", err)
	}
	out := make([]core.ConstituencyID, len(ids))
	for i, id := range ids {
		out[i] = core.ConstituencyID(id)
	}
	return out, nil
}

// UpsertRecord inserts or replaces a record.
func (r *ConstituencyRepository) UpsertRecord(ctx context.Context, rec *constituency.Record) error {
	id, err := core.ParseConstituencyID(rec.ID.String())
	if err != nil {
		return err
	}
	stored := *rec
	stored.ID = id
	doc, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", id, err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO constituency_records (id, name, region, record, updated_at_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			region = EXCLUDED.region,
			record = EXCLUDED.record,
			updated_at_ms = EXCLUDED.updated_at_ms`),
		id.String(), stored.Name, stored.Region, string(doc), r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert constituency %s: %w", id, err)
	}
	return nil
}

func decodeRecord(row recordRow) (*constituency.Record, error) {
	var rec constituency.Record
	if err := json.Unmarshal([]byte(row.Record), &rec); err != nil {
		return nil, fmt.Errorf("decode constituency %s: %w", row.ID, err)
	}
	rec.ID = core.ConstituencyID(row.ID)
	return &rec, nil
}
