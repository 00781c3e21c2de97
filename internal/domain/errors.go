package domain

import "errors"

var (
	ErrShipmentNotFound    = errors.New("shipment not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrNotUploaded         = errors.New("document not uploaded")
	ErrValidation          = errors.New("validation failed")
	ErrReferenceGeneration = errors.New("reference number generation failed")
	ErrStorage             = errors.New("document storage failed")
	ErrFormat              = errors.New("invalid reference number format")
)

// ErrStagePrerequisite is returned when a stage cannot be completed because
// required documents are missing. It matches ErrValidation under errors.Is.
var ErrStagePrerequisite = &stagePrerequisiteError{}

type stagePrerequisiteError struct{}

func (e *stagePrerequisiteError) Error() string { return "stage prerequisites not met" }

func (e *stagePrerequisiteError) Is(target error) bool {
	return target == ErrValidation
}
