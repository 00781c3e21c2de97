package tracker

import (
	"context"
	"fmt"
	"math"

	"customs-clearance/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type ListQuery struct {
	Filter domain.ShipmentFilter
	Page   int
	Limit  int
}

// ShipmentPage is one page of a filtered listing. Total and TotalPages count
// the filtered records, not the whole store.
type ShipmentPage struct {
	Data       []domain.ShipmentRecord `json:"data"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"totalPages"`
}

func (s *Service) ListShipments(ctx context.Context, q ListQuery) (ShipmentPage, error) {
	if err := q.Filter.Validate(); err != nil {
		return ShipmentPage{}, err
	}
	page, limit := normalizePage(q.Page, q.Limit)

	records, total, err := s.repo.List(ctx, q.Filter, (page-1)*limit, limit)
	if err != nil {
		return ShipmentPage{}, fmt.Errorf("tracker: list shipments: %w", err)
	}
	return ShipmentPage{
		Data:       records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
