package domain

type StageKey string

const (
	StageClientDetails      StageKey = "CLIENT_DETAILS"
	StageDocumentCollection StageKey = "DOCUMENT_COLLECTION"
	StageTaxComputation     StageKey = "TAX_COMPUTATION"
	StageReadyForLodgement  StageKey = "READY_FOR_LODGEMENT"
	StageLodged             StageKey = "LODGED"
	StagePaymentCompleted   StageKey = "PAYMENT_COMPLETED"
	StagePortRelease        StageKey = "PORT_RELEASE"
	StageInTransit          StageKey = "IN_TRANSIT"
	StageDelivered          StageKey = "DELIVERED"
)

type StageStatus string

const (
	StageStatusPending  StageStatus = "pending"
	StageStatusPartial  StageStatus = "partial"
	StageStatusComplete StageStatus = "complete"
)

func (s StageStatus) IsValid() bool {
	switch s {
	case StageStatusPending, StageStatusPartial, StageStatusComplete:
		return true
	default:
		return false
	}
}

type DocumentStatus string

const (
	DocumentNotUploaded DocumentStatus = "NOT_UPLOADED"
	DocumentDraft       DocumentStatus = "DRAFT"
	DocumentFinal       DocumentStatus = "FINAL"
)

type TransactionType string

const (
	TransactionImportSea     TransactionType = "IMS"
	TransactionImportAir     TransactionType = "IMA"
	TransactionAccreditNew   TransactionType = "ACN"
	TransactionAccreditRenew TransactionType = "ACR"
	TransactionExport        TransactionType = "EXP"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionImportSea, TransactionImportAir, TransactionAccreditNew, TransactionAccreditRenew, TransactionExport:
		return true
	default:
		return false
	}
}

// IsImport reports whether the transaction clears inbound freight.
func (t TransactionType) IsImport() bool {
	return t == TransactionImportSea || t == TransactionImportAir
}

type ReviewDecisionType string

const (
	ReviewDecisionApprove  ReviewDecisionType = "approve"
	ReviewDecisionFinalize ReviewDecisionType = "finalize"
	ReviewDecisionReject   ReviewDecisionType = "reject"
)
