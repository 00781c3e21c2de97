package temporal

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"

	"customs-clearance/internal/domain"
)

type activityTrace struct {
	mu sync.Mutex

	startedOrder   []string
	completedOrder []string

	confirmIn  *ConfirmUploadInput
	confirmOut *ConfirmUploadOutput
	verifyIn   *DocumentDecisionInput
	verifyOut  *DocumentDecisionOutput
}

func (t *activityTrace) recordStarted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedOrder = append(t.startedOrder, name)
}

func (t *activityTrace) recordCompleted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completedOrder = append(t.completedOrder, name)
}

var _ = Describe("DocumentReviewWorkflow blackbox happy path", func() {
	It("confirms the upload, waits for approval and verifies the checklist slot", func() {
		tracker := newFakeTracker(shipmentWithUpload("ship-blackbox-1"))
		env := newWorkflowEnv(tracker)
		trace := &activityTrace{}

		env.SetOnActivityStartedListener(func(info *activity.Info, _ context.Context, args converter.EncodedValues) {
			trace.recordStarted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "ConfirmUploadActivity":
				var in ConfirmUploadInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.confirmIn = &in
				trace.mu.Unlock()
			case "VerifyDocumentActivity":
				var in DocumentDecisionInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.verifyIn = &in
				trace.mu.Unlock()
			}
		})

		env.SetOnActivityCompletedListener(func(info *activity.Info, result converter.EncodedValue, _ error) {
			trace.recordCompleted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "ConfirmUploadActivity":
				var out ConfirmUploadOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.confirmOut = &out
				trace.mu.Unlock()
			case "VerifyDocumentActivity":
				var out DocumentDecisionOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.verifyOut = &out
				trace.mu.Unlock()
			}
		})

		By("delivering an approval once the workflow is waiting")
		env.RegisterDelayedCallback(func() {
			env.SignalWorkflow(ReviewDecisionSignalName, ReviewDecisionSignal{
				Decision: domain.ReviewDecisionApprove,
				Reviewer: "broker-7",
			})
		}, 5*time.Minute)

		By("triggering the workflow for the uploaded invoice")
		env.ExecuteWorkflow(DocumentReviewWorkflow, invoiceInput("ship-blackbox-1"))

		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).ToNot(HaveOccurred())

		var result WorkflowResult
		Expect(env.GetWorkflowResult(&result)).To(Succeed())
		Expect(result.ShipmentID).To(Equal("ship-blackbox-1"))
		Expect(result.Decision).To(Equal(domain.ReviewDecisionApprove))

		By("validating activity order and payloads")
		Expect(trace.startedOrder).To(Equal([]string{"ConfirmUploadActivity", "VerifyDocumentActivity"}))
		Expect(trace.completedOrder).To(Equal([]string{"ConfirmUploadActivity", "VerifyDocumentActivity"}))

		Expect(trace.confirmIn).ToNot(BeNil())
		Expect(trace.confirmIn.DocumentSlug).To(Equal("commercial-invoice"))
		Expect(trace.confirmOut).ToNot(BeNil())
		Expect(trace.confirmOut.DocumentName).To(Equal(domain.DocCommercialInvoice))
		Expect(trace.confirmOut.URL).To(Equal("memory://ship-blackbox-1/commercial-invoice/ci.pdf"))

		Expect(trace.verifyIn).ToNot(BeNil())
		Expect(trace.verifyIn.Reviewer).To(Equal("broker-7"))
		Expect(trace.verifyOut).ToNot(BeNil())
		Expect(trace.verifyOut.IsVerified).To(BeTrue())

		By("validating the checklist side effect")
		rec := tracker.record("ship-blackbox-1")
		slot, ok := domain.FindSlot(rec.Documents, domain.DocCommercialInvoice)
		Expect(ok).To(BeTrue())
		Expect(slot.IsVerified).To(BeTrue())
		Expect(rec.Notes).To(BeEmpty())
	})
})
