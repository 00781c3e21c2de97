// Package directory keeps the saved consignees and exporters offered when a
// new shipment is filled in.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"customs-clearance/internal/domain"
)

type PartyRole string

const (
	RoleConsignee PartyRole = "consignee"
	RoleExporter  PartyRole = "exporter"
)

func (r PartyRole) IsValid() bool {
	return r == RoleConsignee || r == RoleExporter
}

type Store interface {
	Save(ctx context.Context, role PartyRole, party domain.PartyInfo) error
	List(ctx context.Context, role PartyRole) ([]domain.PartyInfo, error)
}

// MemoryStore holds saved parties per role. Saving a party whose name is
// already on file replaces the earlier entry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[PartyRole][]domain.PartyInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[PartyRole][]domain.PartyInfo)}
}

func (s *MemoryStore) Save(ctx context.Context, role PartyRole, party domain.PartyInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !role.IsValid() {
		return fmt.Errorf("%w: party type %q must be consignee or exporter", domain.ErrValidation, role)
	}
	if strings.TrimSpace(party.Name) == "" {
		return fmt.Errorf("%w: party name is required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.entries[role]
	for i, existing := range list {
		if strings.EqualFold(existing.Name, party.Name) {
			list[i] = party
			return nil
		}
	}
	s.entries[role] = append(list, party)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, role PartyRole) ([]domain.PartyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: party type %q must be consignee or exporter", domain.ErrValidation, role)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PartyInfo{}, s.entries[role]...), nil
}
