//go:build system

package system_test

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strings"

	_ "github.com/lib/pq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/client"

	"customs-clearance/internal/domain"
	"customs-clearance/internal/reference"
	appTemporal "customs-clearance/internal/temporal"
)

var _ = Describe("System blackbox happy path", Ordered, func() {
	var repoRoot string
	var cfg systemTestConfig
	var apiBaseURL string

	BeforeAll(func() {
		if os.Getenv("RUN_BLACKBOX_SYSTEM_TEST") != "1" {
			Skip("set RUN_BLACKBOX_SYSTEM_TEST=1 to run real blackbox system test")
		}

		cfg = loadSystemTestConfig()
		apiBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

		var err error
		repoRoot, err = findRepoRoot()
		Expect(err).ToNot(HaveOccurred())

		By("verifying required docker compose services (including worker and event-handler) are already running")
		Expect(requireComposeServicesRunning(repoRoot, cfg.RequiredComposeServices)).To(Succeed())

		By("failing fast if infrastructure is unreachable")
		Expect(waitForPostgres(cfg.PostgresDSN, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForTemporal(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(cfg.MinioReadyURL, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(applyMigration(repoRoot, cfg.PostgresDSN)).To(Succeed())
		Expect(waitForHTTPStatus(apiBaseURL+cfg.APIHealthPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(apiBaseURL+cfg.APIReadyPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForWorkerPoller(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.TemporalTaskQueue, cfg.WorkerPollerTimeout)).To(Succeed())
	})

	It("creates a shipment, collects documents and verifies one through the review workflow", func() {
		By("creating an import-by-sea shipment exactly like the intake form")
		shipment, status, err := postJSON[domain.ShipmentRecord](apiBaseURL+"/v1/shipments", seaShipmentPayload())
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))
		Expect(reference.Validate(shipment.ReferenceNumber)).To(BeTrue())
		Expect(shipment.CurrentStage).To(Equal(domain.StageClientDetails))

		By("advancing past client details")
		shipment, status, err = postJSON[domain.ShipmentRecord](apiBaseURL+"/v1/shipments/"+shipment.ID+"/advance", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(shipment.CurrentStage).To(Equal(domain.StageDocumentCollection))

		By("refusing to leave document collection before the required documents arrive")
		_, status, err = postJSON[errorBody](apiBaseURL+"/v1/shipments/"+shipment.ID+"/advance", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusBadRequest))

		By("uploading every required document")
		for _, name := range domain.RequiredDocumentsFor(domain.StageDocumentCollection) {
			slot, err := uploadDocument(apiBaseURL, shipment.ID, name, domain.DocumentSlug(name)+".pdf", samplePDF)
			Expect(err).ToNot(HaveOccurred())
			Expect(slot.Status).To(Equal(domain.DocumentDraft))
			Expect(slot.URL).To(ContainSubstring(shipment.ID))
		}

		By("approving the commercial invoice once its review workflow is running")
		slug := domain.DocumentSlug(domain.DocCommercialInvoice)
		reviewURL := apiBaseURL + "/v1/shipments/" + shipment.ID + "/documents/" + slug + "/review"
		Eventually(func() int {
			_, status, err := postJSON[map[string]any](reviewURL, map[string]any{"decision": "approve", "reviewer": "system-test"})
			Expect(err).ToNot(HaveOccurred())
			return status
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(Equal(http.StatusAccepted))

		By("polling the checklist until the invoice is verified")
		Eventually(func() bool {
			rec, err := getJSON[domain.ShipmentRecord](apiBaseURL + "/v1/shipments/" + shipment.ID)
			Expect(err).ToNot(HaveOccurred())
			slot, ok := domain.FindSlot(rec.Documents, domain.DocCommercialInvoice)
			return ok && slot.IsVerified
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(BeTrue())

		By("validating activity inputs and outputs from Temporal workflow history")
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
		})
		Expect(err).ToNot(HaveOccurred())
		defer temporalClient.Close()

		workflowID := appTemporal.WorkflowID(cfg.WorkflowIDPrefix, shipment.ID, slug)
		Eventually(func() ([]string, error) {
			trace, err := collectActivityTrace(context.Background(), temporalClient, workflowID)
			return trace.CompletedOrder, err
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(Equal(cfg.ExpectedActivityOrder))

		trace, err := collectActivityTrace(context.Background(), temporalClient, workflowID)
		Expect(err).ToNot(HaveOccurred())
		Expect(trace.ScheduledOrder).To(Equal(cfg.ExpectedActivityOrder))

		confirmIn := trace.Inputs["ConfirmUploadActivity"].(appTemporal.ConfirmUploadInput)
		Expect(confirmIn.ShipmentID).To(Equal(shipment.ID))
		Expect(confirmIn.DocumentSlug).To(Equal(slug))

		confirmOut := trace.Outputs["ConfirmUploadActivity"].(appTemporal.ConfirmUploadOutput)
		Expect(confirmOut.DocumentName).To(Equal(domain.DocCommercialInvoice))

		verifyIn := trace.Inputs["VerifyDocumentActivity"].(appTemporal.DocumentDecisionInput)
		Expect(verifyIn.Reviewer).To(Equal("system-test"))

		verifyOut := trace.Outputs["VerifyDocumentActivity"].(appTemporal.DocumentDecisionOutput)
		Expect(verifyOut.IsVerified).To(BeTrue())

		signals, err := collectWorkflowSignalNames(context.Background(), temporalClient, workflowID)
		Expect(err).ToNot(HaveOccurred())
		Expect(signals).To(Equal([]string{appTemporal.ReviewDecisionSignalName}))

		By("advancing to tax computation now that the documents are in")
		shipment, status, err = postJSON[domain.ShipmentRecord](apiBaseURL+"/v1/shipments/"+shipment.ID+"/advance", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(shipment.CurrentStage).To(Equal(domain.StageTaxComputation))

		By("verifying the persisted row and counter in Postgres")
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		Expect(err).ToNot(HaveOccurred())
		defer db.Close()

		stages, err := fetchStringRows(db, `SELECT current_stage FROM shipments WHERE id = $1`, shipment.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(stages).To(Equal([]string{string(domain.StageTaxComputation)}))

		parsed, err := reference.Parse(shipment.ReferenceNumber)
		Expect(err).ToNot(HaveOccurred())
		var sequence int64
		Expect(db.QueryRow(`SELECT sequence FROM reference_counters WHERE transaction_type = $1 AND year = $2`,
			string(parsed.TransactionType), parsed.Year).Scan(&sequence)).To(Succeed())
		Expect(sequence).To(BeNumerically(">=", parsed.Sequence))
	})
})
