package domain

import (
	"fmt"
	"strings"
)

// ValidateForm checks a new shipment against its transaction type.
func ValidateForm(t TransactionType, form ShipmentForm) error {
	failed := make([]string, 0)

	if !t.IsValid() {
		failed = append(failed, fmt.Sprintf("transaction_type %q is not one of IMS, IMA, ACN, ACR, EXP", t))
	}
	if strings.TrimSpace(form.Consignee.Name) == "" {
		failed = append(failed, "consignee.name is required")
	}
	if strings.TrimSpace(form.Exporter.Name) == "" {
		failed = append(failed, "exporter.name is required")
	}
	if form.ShipmentDetails == nil {
		failed = append(failed, "shipment_details is required")
	} else if t.IsValid() {
		if err := form.ShipmentDetails.ValidateFor(t); err != nil {
			failed = append(failed, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
		}
	}

	return rulesError(failed)
}

// ValidatePatch rejects patches that would corrupt the record. A patch may
// only complete the record's current stage; document gating is applied by the
// caller exactly as for stage advancement.
func ValidatePatch(rec ShipmentRecord, patch ShipmentPatch) error {
	failed := make([]string, 0)

	if patch.Consignee != nil && strings.TrimSpace(patch.Consignee.Name) == "" {
		failed = append(failed, "consignee.name is required")
	}
	if patch.Exporter != nil && strings.TrimSpace(patch.Exporter.Name) == "" {
		failed = append(failed, "exporter.name is required")
	}
	if patch.ShipmentDetails != nil {
		if err := patch.ShipmentDetails.ValidateFor(rec.TransactionType); err != nil {
			failed = append(failed, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
		}
	}
	if u := patch.StageUpdate; u != nil {
		if !u.Stage.IsValid() {
			failed = append(failed, fmt.Sprintf("stage %q is unknown", u.Stage))
		}
		switch u.Status {
		case "", StageStatusPending, StageStatusPartial:
		case StageStatusComplete:
			if u.Stage != rec.CurrentStage {
				failed = append(failed, fmt.Sprintf("only the current stage %s can be completed", rec.CurrentStage))
			}
		default:
			failed = append(failed, fmt.Sprintf("status %q is unknown", u.Status))
		}
	}

	return rulesError(failed)
}

func rulesError(failed []string) error {
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(failed, "; "))
}
