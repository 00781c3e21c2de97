package domain

import (
	"sort"
	"strings"
)

// WorkflowStage is one step of the fixed clearance workflow. Order values are
// unique; the catalog is sorted by Order.
type WorkflowStage struct {
	Key               StageKey `json:"key"`
	Label             string   `json:"label"`
	Order             int      `json:"order"`
	RequiredDocuments []string `json:"required_documents"`
	OptionalDocuments []string `json:"optional_documents,omitempty"`
}

const (
	DocBillOfLading          = "Bill of Lading / Airway Bill"
	DocCommercialInvoice     = "Commercial Invoice"
	DocPackingList           = "Packing List"
	DocLetterhead            = "Letterhead"
	DocSafetyDataSheet       = "Safety Data Sheet (SDS)"
	DocCertificateOfOrigin   = "Certificate of Origin"
	DocImportPermit          = "Import Permit"
	DocProductCertifications = "Product Certifications"
	DocFinalSAD              = "Final SAD"
)

var stageCatalog = []WorkflowStage{
	{Key: StageClientDetails, Label: "Client Shipment Details", Order: 1},
	{
		Key:   StageDocumentCollection,
		Label: "Document Collection & Verification",
		Order: 2,
		RequiredDocuments: []string{
			DocBillOfLading,
			DocCommercialInvoice,
			DocPackingList,
			DocLetterhead,
		},
		OptionalDocuments: []string{
			DocSafetyDataSheet,
			DocCertificateOfOrigin,
			DocImportPermit,
			DocProductCertifications,
		},
	},
	{Key: StageTaxComputation, Label: "Tax/Duty Computation", Order: 3},
	{Key: StageReadyForLodgement, Label: "Ready for E2M", Order: 4},
	{Key: StageLodged, Label: "Lodged in E2M and Portal", Order: 5, OptionalDocuments: []string{DocFinalSAD}},
	{Key: StagePaymentCompleted, Label: "Payment Completed", Order: 6},
	{Key: StagePortRelease, Label: "Port Release", Order: 7},
	{Key: StageInTransit, Label: "In Transit", Order: 8},
	{Key: StageDelivered, Label: "Delivered", Order: 9},
}

// ListStages returns a copy of the catalog ordered by Order.
func ListStages() []WorkflowStage {
	out := make([]WorkflowStage, len(stageCatalog))
	for i, st := range stageCatalog {
		out[i] = st.clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func FirstStage() StageKey {
	return ListStages()[0].Key
}

func LastStage() StageKey {
	stages := ListStages()
	return stages[len(stages)-1].Key
}

// LookupStage returns the catalog entry for key.
func LookupStage(key StageKey) (WorkflowStage, bool) {
	for _, st := range stageCatalog {
		if st.Key == key {
			return st.clone(), true
		}
	}
	return WorkflowStage{}, false
}

func (k StageKey) IsValid() bool {
	_, ok := LookupStage(k)
	return ok
}

// NextStage returns the stage that follows current. The second return value is
// false when current is terminal or unknown.
func NextStage(current StageKey) (StageKey, bool) {
	stages := ListStages()
	for i, st := range stages {
		if st.Key != current {
			continue
		}
		if i+1 >= len(stages) {
			return "", false
		}
		return stages[i+1].Key, true
	}
	return "", false
}

func RequiredDocumentsFor(stage StageKey) []string {
	st, ok := LookupStage(stage)
	if !ok {
		return nil
	}
	return st.RequiredDocuments
}

// DocumentSlug turns a document name into a path-safe identifier, e.g.
// "Bill of Lading / Airway Bill" -> "bill-of-lading-airway-bill".
func DocumentSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DocumentNameForSlug resolves a slug back to a catalog document name.
func DocumentNameForSlug(slug string) (string, bool) {
	for _, st := range stageCatalog {
		for _, name := range append(append([]string(nil), st.RequiredDocuments...), st.OptionalDocuments...) {
			if DocumentSlug(name) == slug {
				return name, true
			}
		}
	}
	return "", false
}

func (s WorkflowStage) clone() WorkflowStage {
	s.RequiredDocuments = append([]string{}, s.RequiredDocuments...)
	s.OptionalDocuments = append([]string(nil), s.OptionalDocuments...)
	return s
}
