package domain

import (
	"fmt"
	"sort"
)

type DocumentSlot struct {
	Name       string         `json:"name"`
	Status     DocumentStatus `json:"status"`
	IsVerified bool           `json:"is_verified"`
	IsRequired bool           `json:"is_required"`
	URL        string         `json:"url,omitempty"`
}

// InitializeChecklist builds one NOT_UPLOADED slot per distinct document name
// across the given stages, in stage order. A slot is required when any stage
// lists its name as required.
func InitializeChecklist(stages []WorkflowStage) []DocumentSlot {
	required := make(map[string]bool)
	for _, st := range stages {
		for _, name := range st.RequiredDocuments {
			required[name] = true
		}
	}

	seen := make(map[string]bool)
	slots := make([]DocumentSlot, 0)
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		slots = append(slots, DocumentSlot{
			Name:       name,
			Status:     DocumentNotUploaded,
			IsRequired: required[name],
		})
	}
	for _, st := range sortedStages(stages) {
		for _, name := range st.RequiredDocuments {
			add(name)
		}
		for _, name := range st.OptionalDocuments {
			add(name)
		}
	}
	return slots
}

// RecordUpload marks the named slot as a draft upload stored at url.
// Verification state is left untouched. The input slice is not modified.
func RecordUpload(slots []DocumentSlot, name, url string) ([]DocumentSlot, error) {
	idx := slotIndex(slots, name)
	if idx < 0 {
		return slots, fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	out := cloneSlots(slots)
	out[idx].Status = DocumentDraft
	out[idx].URL = url
	return out, nil
}

func VerifyDocument(slots []DocumentSlot, name string) ([]DocumentSlot, error) {
	idx := slotIndex(slots, name)
	if idx < 0 {
		return slots, fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	if slots[idx].Status == DocumentNotUploaded {
		return slots, fmt.Errorf("%w: %q", ErrNotUploaded, name)
	}
	out := cloneSlots(slots)
	out[idx].IsVerified = true
	return out, nil
}

// FinalizeDocument promotes an uploaded document to FINAL and marks it verified.
func FinalizeDocument(slots []DocumentSlot, name string) ([]DocumentSlot, error) {
	out, err := VerifyDocument(slots, name)
	if err != nil {
		return slots, err
	}
	out[slotIndex(out, name)].Status = DocumentFinal
	return out, nil
}

// IsStageSatisfied is true when every required document of stage has been
// uploaded. Verification is not required.
func IsStageSatisfied(slots []DocumentSlot, stage WorkflowStage) bool {
	return len(MissingDocuments(slots, stage)) == 0
}

func MissingDocuments(slots []DocumentSlot, stage WorkflowStage) []string {
	var missing []string
	for _, name := range stage.RequiredDocuments {
		idx := slotIndex(slots, name)
		if idx < 0 || slots[idx].Status == DocumentNotUploaded {
			missing = append(missing, name)
		}
	}
	return missing
}

func FindSlot(slots []DocumentSlot, name string) (DocumentSlot, bool) {
	idx := slotIndex(slots, name)
	if idx < 0 {
		return DocumentSlot{}, false
	}
	return slots[idx], true
}

func slotIndex(slots []DocumentSlot, name string) int {
	for i, s := range slots {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func cloneSlots(slots []DocumentSlot) []DocumentSlot {
	return append([]DocumentSlot(nil), slots...)
}

func sortedStages(stages []WorkflowStage) []WorkflowStage {
	out := append([]WorkflowStage(nil), stages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
