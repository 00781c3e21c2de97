package temporal

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

var ErrReviewNotRunning = errors.New("no review in progress for document")

// ReviewClient starts document reviews and delivers reviewer decisions.
type ReviewClient struct {
	client    client.Client
	taskQueue string
	prefix    string
}

func NewReviewClient(c client.Client, taskQueue, workflowIDPrefix string) *ReviewClient {
	return &ReviewClient{client: c, taskQueue: taskQueue, prefix: workflowIDPrefix}
}

// StartReview starts the review workflow for an uploaded document. A review
// already running for the same document is not an error; started reports
// whether a new execution was created.
func (r *ReviewClient) StartReview(ctx context.Context, input WorkflowInput) (workflowID string, started bool, err error) {
	workflowID = WorkflowID(r.prefix, input.ShipmentID, input.DocumentSlug)
	_, err = r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                r.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, DocumentReviewWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return workflowID, false, nil
		}
		return workflowID, false, fmt.Errorf("start review %s: %w", workflowID, err)
	}
	return workflowID, true, nil
}

func (r *ReviewClient) SendDecision(ctx context.Context, shipmentID, documentSlug string, decision ReviewDecisionSignal) error {
	workflowID := WorkflowID(r.prefix, shipmentID, documentSlug)
	if err := r.client.SignalWorkflow(ctx, workflowID, "", ReviewDecisionSignalName, decision); err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ErrReviewNotRunning, workflowID)
		}
		return fmt.Errorf("signal review %s: %w", workflowID, err)
	}
	return nil
}
