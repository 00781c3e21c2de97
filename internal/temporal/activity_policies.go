package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	ActivityPolicyConfirmUpload    = "confirm_upload"
	ActivityPolicyVerifyDocument   = "verify_document"
	ActivityPolicyFinalizeDocument = "finalize_document"
	ActivityPolicyRejectDocument   = "reject_document"
)

type activityPolicy struct {
	StartToCloseTimeout time.Duration
	RetryPolicy         temporal.RetryPolicy
}

var trackerRetry = temporal.RetryPolicy{
	InitialInterval:    1 * time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    10 * time.Second,
	MaximumAttempts:    3,
}

var activityPolicies = map[string]activityPolicy{
	// The object can land before the checklist write commits, so confirmation
	// keeps retrying for a while.
	ActivityPolicyConfirmUpload: {
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    6,
		},
	},
	ActivityPolicyVerifyDocument: {
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         trackerRetry,
	},
	ActivityPolicyFinalizeDocument: {
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         trackerRetry,
	},
	ActivityPolicyRejectDocument: {
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         trackerRetry,
	},
}

func ActivityOptionsFor(policyName string) (workflow.ActivityOptions, error) {
	policy, ok := activityPolicies[policyName]
	if !ok {
		return workflow.ActivityOptions{}, fmt.Errorf("unknown activity policy: %s", policyName)
	}

	retry := policy.RetryPolicy
	return workflow.ActivityOptions{
		StartToCloseTimeout: policy.StartToCloseTimeout,
		RetryPolicy:         &retry,
	}, nil
}

func mustActivityContext(ctx workflow.Context, policyName string) workflow.Context {
	ao, err := ActivityOptionsFor(policyName)
	if err != nil {
		panic(err)
	}
	return workflow.WithActivityOptions(ctx, ao)
}
