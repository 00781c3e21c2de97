package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"customs-clearance/internal/domain"
)

// MemoryStore keeps shipment records in process memory. Records are cloned on
// the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.ShipmentRecord
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.ShipmentRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, rec domain.ShipmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("storage: create shipment %q: already exists", rec.ID)
	}
	for _, existing := range s.records {
		if existing.ReferenceNumber == rec.ReferenceNumber {
			return fmt.Errorf("storage: create shipment: duplicate reference %q", rec.ReferenceNumber)
		}
	}
	s.records[rec.ID] = rec.Clone()
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ShipmentRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return domain.ShipmentRecord{}, fmt.Errorf("%w: %s", domain.ErrShipmentNotFound, id)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, rec domain.ShipmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrShipmentNotFound, rec.ID)
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

// List returns one page of matching records in creation order plus the total
// number of matches.
func (s *MemoryStore) List(ctx context.Context, filter domain.ShipmentFilter, offset, limit int) ([]domain.ShipmentRecord, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.ShipmentRecord, 0)
	for _, id := range s.order {
		rec := s.records[id]
		if filter.Matches(rec) {
			matches = append(matches, rec)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})

	total := len(matches)
	if offset >= total {
		return []domain.ShipmentRecord{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	page := make([]domain.ShipmentRecord, 0, end-offset)
	for _, rec := range matches[offset:end] {
		page = append(page, rec.Clone())
	}
	return page, total, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
