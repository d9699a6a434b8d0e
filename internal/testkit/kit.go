// Package testkit provides an in-memory record store and a seeded generator of
// synthetic constituency records for tests, demos and load runs.
package testkit

import (
	"context"
	"sort"
	"sync"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/ports"
)

// MemoryStore implements ports.ConstituencyStore in memory
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[core.ConstituencyID]*constituency.Record
	unavailable error
}

var _ ports.ConstituencyStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding recs
func NewMemoryStore(recs ...*constituency.Record) *MemoryStore {
	s := &MemoryStore{records: make(map[core.ConstituencyID]*constituency.Record, len(recs))}
	for _, rec := range recs {
		cp := *rec
		s.records[rec.ID] = &cp
	}
	return s
}

// SetUnavailable makes every call fail with err until it is reset with nil
func (s *MemoryStore) SetUnavailable(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = err
}

func (s *MemoryStore) GetRecord(_ context.Context, id core.ConstituencyID) (*constituency.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable != nil {
		return nil, s.unavailable
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, core.NewUnknownConstituencyError(id)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) ListByRegion(_ context.Context, region string) ([]*constituency.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable != nil {
		return nil, s.unavailable
	}
	var out []*constituency.Record
	for _, rec := range s.records {
		if rec.Region == region {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListIDs(context.Context) ([]core.ConstituencyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable != nil {
		return nil, s.unavailable
	}
	ids := make([]core.ConstituencyID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) UpsertRecord(_ context.Context, rec *constituency.Record) error {
	id, err := core.ParseConstituencyID(rec.ID.String())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable != nil {
		return s.unavailable
	}
	cp := *rec
	cp.ID = id
	s.records[id] = &cp
	return nil
}
