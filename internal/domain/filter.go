package domain

import "fmt"

const (
	StatusFilterActive    = "active"
	StatusFilterCompleted = "completed"
)

// ShipmentFilter narrows a shipment listing. Status is "active", "completed"
// or a stage key; empty fields match everything.
type ShipmentFilter struct {
	Status          string
	TransactionType TransactionType
}

func (f ShipmentFilter) Validate() error {
	switch f.Status {
	case "", StatusFilterActive, StatusFilterCompleted:
	default:
		if !StageKey(f.Status).IsValid() {
			return fmt.Errorf("%w: unknown status filter %q", ErrValidation, f.Status)
		}
	}
	if f.TransactionType != "" && !f.TransactionType.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, f.TransactionType)
	}
	return nil
}

func (f ShipmentFilter) Matches(rec ShipmentRecord) bool {
	if f.TransactionType != "" && rec.TransactionType != f.TransactionType {
		return false
	}
	switch f.Status {
	case "":
		return true
	case StatusFilterActive:
		return !rec.IsTerminal()
	case StatusFilterCompleted:
		return rec.IsTerminal()
	default:
		return rec.CurrentStage == StageKey(f.Status)
	}
}
