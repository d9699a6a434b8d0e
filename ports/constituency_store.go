package ports

import (
	"context"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
)

// ConstituencyStore is the record store the profile resolver reads from.
// GetRecord returns an error matching core.ErrUnknownConstituency when the id
// has no record; any other error means the store itself is unavailable.
type ConstituencyStore interface {
	GetRecord(ctx context.Context, id core.ConstituencyID) (*constituency.Record, error)
	ListByRegion(ctx context.Context, region string) ([]*constituency.Record, error)
	ListIDs(ctx context.Context) ([]core.ConstituencyID, error)
	UpsertRecord(ctx context.Context, rec *constituency.Record) error
}
