// Package tracker owns shipment records: creation with a reference number,
// document uploads, stage advancement and listing.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"customs-clearance/internal/domain"
	"customs-clearance/internal/reference"
)

type Repository interface {
	Create(ctx context.Context, rec domain.ShipmentRecord) error
	Get(ctx context.Context, id string) (domain.ShipmentRecord, error)
	Update(ctx context.Context, rec domain.ShipmentRecord) error
	List(ctx context.Context, filter domain.ShipmentFilter, offset, limit int) ([]domain.ShipmentRecord, int, error)
}

type ReferenceIssuer interface {
	Next(ctx context.Context, transactionType domain.TransactionType, year string) (reference.Issued, error)
}

// BlobStore persists uploaded document bytes and returns an addressable URL.
type BlobStore interface {
	PutDocument(ctx context.Context, shipmentID, documentSlug, filename, contentType string, content []byte) (string, error)
}

type Upload struct {
	Name        string
	Filename    string
	ContentType string
	Content     []byte
}

type Service struct {
	repo   Repository
	refs   ReferenceIssuer
	blobs  BlobStore
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	locks  *keyedMutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(repo Repository, refs ReferenceIssuer, blobs BlobStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:   repo,
		refs:   refs,
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShipment issues a reference number and stores a fresh record. When the
// reference cannot be issued nothing is stored.
func (s *Service) CreateShipment(ctx context.Context, transactionType domain.TransactionType, form domain.ShipmentForm) (domain.ShipmentRecord, error) {
	if err := domain.ValidateForm(transactionType, form); err != nil {
		return domain.ShipmentRecord{}, err
	}

	now := s.now().UTC()
	issued, err := s.refs.Next(ctx, transactionType, reference.YearOf(now.Year()))
	if err != nil {
		s.logger.Warn("reference number not issued", zap.String("transaction_type", string(transactionType)), zap.Error(err))
		return domain.ShipmentRecord{}, err
	}

	rec := domain.ShipmentRecord{
		ID:              s.newID(),
		ReferenceNumber: issued.ReferenceNumber,
		TransactionType: transactionType,
		CurrentStage:    domain.FirstStage(),
		Consignee:       form.Consignee,
		Exporter:        form.Exporter,
		ShipmentDetails: *form.ShipmentDetails,
		Documents:       domain.InitializeChecklist(domain.ListStages()),
		Timeline:        domain.AppendTimeline(nil, domain.FirstStage(), domain.StageStatusPending, now),
		Notes:           append([]string{}, form.Notes...),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if form.Computations != nil {
		rec.Computations = form.Computations.WithTotal()
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("tracker: create shipment: %w", err)
	}
	s.logger.Info("shipment created",
		zap.String("shipment_id", rec.ID),
		zap.String("reference_number", rec.ReferenceNumber),
		zap.String("transaction_type", string(rec.TransactionType)),
	)
	return rec, nil
}

func (s *Service) GetShipment(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	return s.repo.Get(ctx, id)
}

// UpdateShipment merges the non-nil patch fields into the stored record.
// Concurrent patches to the same id are applied one at a time; the last one wins.
func (s *Service) UpdateShipment(ctx context.Context, id string, patch domain.ShipmentPatch) (domain.ShipmentRecord, error) {
	return s.mutate(ctx, id, func(rec *domain.ShipmentRecord, now time.Time) (bool, error) {
		if err := domain.ValidatePatch(*rec, patch); err != nil {
			return false, err
		}
		changed := patch.Consignee != nil || patch.Exporter != nil || patch.ShipmentDetails != nil ||
			patch.Computations != nil || patch.Notes != nil
		if patch.Consignee != nil {
			rec.Consignee = *patch.Consignee
		}
		if patch.Exporter != nil {
			rec.Exporter = *patch.Exporter
		}
		if patch.ShipmentDetails != nil {
			rec.ShipmentDetails = *patch.ShipmentDetails
		}
		if patch.Computations != nil {
			rec.Computations = patch.Computations.WithTotal()
		}
		if patch.Notes != nil {
			rec.Notes = append([]string{}, patch.Notes...)
		}
		if u := patch.StageUpdate; u != nil {
			switch u.Status {
			case domain.StageStatusComplete:
				advanced, err := completeCurrentStage(rec, now)
				if err != nil {
					return false, err
				}
				changed = changed || advanced
			case "":
				rec.Timeline = domain.AppendTimeline(rec.Timeline, u.Stage, domain.StageStatusPending, now)
				changed = true
			default:
				rec.Timeline = domain.AppendTimeline(rec.Timeline, u.Stage, u.Status, now)
				changed = true
			}
		}
		return changed, nil
	})
}

// AdvanceStage completes the current stage once its required documents are
// uploaded. At the terminal stage it returns the record unchanged.
func (s *Service) AdvanceStage(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	var advanced bool
	rec, err := s.mutate(ctx, id, func(rec *domain.ShipmentRecord, now time.Time) (bool, error) {
		var err error
		advanced, err = completeCurrentStage(rec, now)
		return advanced, err
	})
	if err != nil {
		if errors.Is(err, domain.ErrStagePrerequisite) {
			s.logger.Info("stage advance blocked", zap.String("shipment_id", id), zap.Error(err))
		}
		return domain.ShipmentRecord{}, err
	}
	if !advanced {
		return rec, nil
	}
	s.logger.Info("stage advanced", zap.String("shipment_id", id), zap.String("current_stage", string(rec.CurrentStage)))
	return rec, nil
}

// UploadDocument stores the bytes in the blob store and records the upload on
// the checklist. A blob failure leaves the checklist untouched.
func (s *Service) UploadDocument(ctx context.Context, id string, up Upload) (domain.DocumentSlot, error) {
	rec, err := s.mutate(ctx, id, func(rec *domain.ShipmentRecord, _ time.Time) (bool, error) {
		if _, ok := domain.FindSlot(rec.Documents, up.Name); !ok {
			return false, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, up.Name)
		}
		if s.blobs == nil {
			return false, fmt.Errorf("%w: no blob store configured", domain.ErrStorage)
		}
		url, err := s.blobs.PutDocument(ctx, rec.ID, domain.DocumentSlug(up.Name), up.Filename, up.ContentType, up.Content)
		if err != nil {
			return false, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		docs, err := domain.RecordUpload(rec.Documents, up.Name, url)
		if err != nil {
			return false, err
		}
		rec.Documents = docs
		return true, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			s.logger.Error("document upload failed", zap.String("shipment_id", id), zap.String("document", up.Name), zap.Error(err))
		}
		return domain.DocumentSlot{}, err
	}
	slot, _ := domain.FindSlot(rec.Documents, up.Name)
	s.logger.Info("document uploaded", zap.String("shipment_id", id), zap.String("document", up.Name), zap.Int("bytes", len(up.Content)))
	return slot, nil
}

func (s *Service) VerifyDocument(ctx context.Context, id, name string) (domain.DocumentSlot, error) {
	return s.updateSlot(ctx, id, name, domain.VerifyDocument, "document verified")
}

func (s *Service) FinalizeDocument(ctx context.Context, id, name string) (domain.DocumentSlot, error) {
	return s.updateSlot(ctx, id, name, domain.FinalizeDocument, "document finalized")
}

func (s *Service) AddNote(ctx context.Context, id, note string) (domain.ShipmentRecord, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return domain.ShipmentRecord{}, fmt.Errorf("%w: note is empty", domain.ErrValidation)
	}
	return s.mutate(ctx, id, func(rec *domain.ShipmentRecord, _ time.Time) (bool, error) {
		rec.Notes = append(rec.Notes, note)
		return true, nil
	})
}

type TimelineView struct {
	ShipmentID   string                 `json:"shipment_id"`
	CurrentStage domain.StageKey        `json:"current_stage"`
	Entries      []domain.TimelineEntry `json:"entries"`
	Stages       []domain.StageProgress `json:"stages"`
}

func (s *Service) Timeline(ctx context.Context, id string) (TimelineView, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return TimelineView{}, err
	}
	return TimelineView{
		ShipmentID:   rec.ID,
		CurrentStage: rec.CurrentStage,
		Entries:      rec.Timeline,
		Stages:       domain.TimelineSummary(rec.Timeline),
	}, nil
}

// IssueReference hands out a standalone reference number.
func (s *Service) IssueReference(ctx context.Context, transactionType domain.TransactionType, year string) (reference.Issued, error) {
	if year == "" {
		year = reference.YearOf(s.now().UTC().Year())
	}
	return s.refs.Next(ctx, transactionType, year)
}

func (s *Service) updateSlot(ctx context.Context, id, name string, apply func([]domain.DocumentSlot, string) ([]domain.DocumentSlot, error), msg string) (domain.DocumentSlot, error) {
	rec, err := s.mutate(ctx, id, func(rec *domain.ShipmentRecord, _ time.Time) (bool, error) {
		docs, err := apply(rec.Documents, name)
		if err != nil {
			return false, err
		}
		rec.Documents = docs
		return true, nil
	})
	if err != nil {
		return domain.DocumentSlot{}, err
	}
	slot, _ := domain.FindSlot(rec.Documents, name)
	s.logger.Info(msg, zap.String("shipment_id", id), zap.String("document", name))
	return slot, nil
}

// mutate serializes read-modify-write cycles per shipment id. fn works on a
// copy; nothing is written when it fails or reports no change.
func (s *Service) mutate(ctx context.Context, id string, fn func(rec *domain.ShipmentRecord, now time.Time) (bool, error)) (domain.ShipmentRecord, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.ShipmentRecord{}, err
	}
	next := stored.Clone()
	now := s.now().UTC()
	changed, err := fn(&next, now)
	if err != nil {
		return domain.ShipmentRecord{}, err
	}
	if !changed {
		return stored, nil
	}
	next.UpdatedAt = now
	if err := s.repo.Update(ctx, next); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("tracker: save shipment %s: %w", id, err)
	}
	return next, nil
}

func completeCurrentStage(rec *domain.ShipmentRecord, now time.Time) (bool, error) {
	if rec.IsTerminal() {
		return false, nil
	}
	stage, ok := domain.LookupStage(rec.CurrentStage)
	if !ok {
		return false, fmt.Errorf("%w: record is at unknown stage %q", domain.ErrValidation, rec.CurrentStage)
	}
	if missing := domain.MissingDocuments(rec.Documents, stage); len(missing) > 0 {
		return false, fmt.Errorf("%w: %s requires %s", domain.ErrStagePrerequisite, stage.Label, strings.Join(missing, ", "))
	}
	rec.Timeline = domain.AppendTimeline(rec.Timeline, stage.Key, domain.StageStatusComplete, now)
	rec.CurrentStage = domain.CurrentStage(rec.Timeline)
	return true, nil
}
