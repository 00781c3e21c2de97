package temporal

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"customs-clearance/internal/domain"
)

const (
	errTypeUnknownDocument = "UnknownDocument"
	errTypeUnknownShipment = "UnknownShipment"
	errTypeNotUploaded     = "NotUploaded"
)

// ShipmentTracker is the part of the tracker service the review activities use.
type ShipmentTracker interface {
	GetShipment(ctx context.Context, id string) (domain.ShipmentRecord, error)
	VerifyDocument(ctx context.Context, id, name string) (domain.DocumentSlot, error)
	FinalizeDocument(ctx context.Context, id, name string) (domain.DocumentSlot, error)
	AddNote(ctx context.Context, id, note string) (domain.ShipmentRecord, error)
}

type Activities struct {
	Tracker ShipmentTracker
}

type ConfirmUploadInput struct {
	ShipmentID   string
	DocumentSlug string
}

type ConfirmUploadOutput struct {
	DocumentName string
	Status       domain.DocumentStatus
	URL          string
}

type DocumentDecisionInput struct {
	ShipmentID   string
	DocumentName string
	Reviewer     string
	Reason       string
}

type DocumentDecisionOutput struct {
	Status     domain.DocumentStatus
	IsVerified bool
}

// ConfirmUploadActivity resolves the document slug and checks the checklist
// already records the upload. NOT_UPLOADED is retried; unknown shipments and
// documents are not.
func (a *Activities) ConfirmUploadActivity(ctx context.Context, input ConfirmUploadInput) (ConfirmUploadOutput, error) {
	name, ok := domain.DocumentNameForSlug(input.DocumentSlug)
	if !ok {
		return ConfirmUploadOutput{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unknown document %q", input.DocumentSlug), errTypeUnknownDocument, nil)
	}

	rec, err := a.Tracker.GetShipment(ctx, input.ShipmentID)
	if err != nil {
		return ConfirmUploadOutput{}, classify(err)
	}
	slot, ok := domain.FindSlot(rec.Documents, name)
	if !ok {
		return ConfirmUploadOutput{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("shipment %s has no %q slot", input.ShipmentID, name), errTypeUnknownDocument, nil)
	}
	if slot.Status == domain.DocumentNotUploaded {
		return ConfirmUploadOutput{}, temporal.NewApplicationError(
			fmt.Sprintf("%s not yet recorded for shipment %s", name, input.ShipmentID), errTypeNotUploaded)
	}

	activity.GetLogger(ctx).Info("upload confirmed", "shipment_id", input.ShipmentID, "document", name)
	return ConfirmUploadOutput{DocumentName: name, Status: slot.Status, URL: slot.URL}, nil
}

func (a *Activities) VerifyDocumentActivity(ctx context.Context, input DocumentDecisionInput) (DocumentDecisionOutput, error) {
	slot, err := a.Tracker.VerifyDocument(ctx, input.ShipmentID, input.DocumentName)
	if err != nil {
		return DocumentDecisionOutput{}, classify(err)
	}
	activity.GetLogger(ctx).Info("document verified", "shipment_id", input.ShipmentID, "document", input.DocumentName, "reviewer", input.Reviewer)
	return DocumentDecisionOutput{Status: slot.Status, IsVerified: slot.IsVerified}, nil
}

func (a *Activities) FinalizeDocumentActivity(ctx context.Context, input DocumentDecisionInput) (DocumentDecisionOutput, error) {
	slot, err := a.Tracker.FinalizeDocument(ctx, input.ShipmentID, input.DocumentName)
	if err != nil {
		return DocumentDecisionOutput{}, classify(err)
	}
	activity.GetLogger(ctx).Info("document finalized", "shipment_id", input.ShipmentID, "document", input.DocumentName, "reviewer", input.Reviewer)
	return DocumentDecisionOutput{Status: slot.Status, IsVerified: slot.IsVerified}, nil
}

// RejectDocumentActivity leaves the checklist as is and records the reason as
// a shipment note.
func (a *Activities) RejectDocumentActivity(ctx context.Context, input DocumentDecisionInput) error {
	note := fmt.Sprintf("%s rejected", input.DocumentName)
	if input.Reason != "" {
		note += ": " + input.Reason
	}
	if _, err := a.Tracker.AddNote(ctx, input.ShipmentID, note); err != nil {
		return classify(err)
	}
	activity.GetLogger(ctx).Info("document rejected", "shipment_id", input.ShipmentID, "document", input.DocumentName, "reviewer", input.Reviewer)
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeUnknownShipment, err)
	case errors.Is(err, domain.ErrDocumentNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeUnknownDocument, err)
	case errors.Is(err, domain.ErrNotUploaded):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeNotUploaded, err)
	default:
		return err
	}
}
