package temporal

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"customs-clearance/internal/domain"
)

const DocumentReviewWorkflowName = "DocumentReviewWorkflow"

type WorkflowInput struct {
	ShipmentID   string
	DocumentSlug string
	Filename     string
	ObjectKey    string
}

type WorkflowResult struct {
	ShipmentID   string
	DocumentName string
	Decision     domain.ReviewDecisionType
	Status       domain.DocumentStatus
	IsVerified   bool
}

// WorkflowID names the review workflow of one shipment document, so a repeated
// upload event maps onto the running review.
func WorkflowID(prefix, shipmentID, documentSlug string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, shipmentID, documentSlug)
}

// DocumentReviewWorkflow confirms an uploaded document is on the checklist and
// then waits for a reviewer decision.
func DocumentReviewWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	var confirmed ConfirmUploadOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyConfirmUpload), (*Activities).ConfirmUploadActivity, ConfirmUploadInput{
		ShipmentID:   input.ShipmentID,
		DocumentSlug: input.DocumentSlug,
	}).Get(ctx, &confirmed); err != nil {
		return WorkflowResult{}, err
	}

	result := WorkflowResult{
		ShipmentID:   input.ShipmentID,
		DocumentName: confirmed.DocumentName,
		Status:       confirmed.Status,
	}

	signalChan := workflow.GetSignalChannel(ctx, ReviewDecisionSignalName)
	for {
		var decision ReviewDecisionSignal
		signalChan.Receive(ctx, &decision)

		req := DocumentDecisionInput{
			ShipmentID:   input.ShipmentID,
			DocumentName: confirmed.DocumentName,
			Reviewer:     decision.Reviewer,
			Reason:       decision.Reason,
		}

		var out DocumentDecisionOutput
		switch decision.Decision {
		case domain.ReviewDecisionApprove:
			if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyVerifyDocument), (*Activities).VerifyDocumentActivity, req).Get(ctx, &out); err != nil {
				return WorkflowResult{}, err
			}
		case domain.ReviewDecisionFinalize:
			if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyFinalizeDocument), (*Activities).FinalizeDocumentActivity, req).Get(ctx, &out); err != nil {
				return WorkflowResult{}, err
			}
		case domain.ReviewDecisionReject:
			if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyRejectDocument), (*Activities).RejectDocumentActivity, req).Get(ctx, nil); err != nil {
				return WorkflowResult{}, err
			}
			out = DocumentDecisionOutput{Status: confirmed.Status}
		default:
			logger.Warn("ignoring review decision", "decision", decision.Decision)
			continue
		}

		result.Decision = decision.Decision
		result.Status = out.Status
		result.IsVerified = out.IsVerified
		return result, nil
	}
}
