package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"customs-clearance/internal/logging"
)

func NewRouter(h *Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				h.logger.Warn("secure headers blocked request", zap.Error(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/v1", func(r chi.Router) {
		if h.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.cfg.RequestTimeout))
		}
		if h.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(h.cfg.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}

		r.Get("/stages", h.ListStages)
		r.Post("/reference-numbers", h.IssueReference)
		r.Get("/reference-numbers/validate", h.ValidateReference)
		r.Get("/parties", h.ListParties)
		r.Post("/parties", h.SaveParty)

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", h.CreateShipment)
			r.Get("/", h.ListShipments)
			r.Route("/{shipmentId}", func(r chi.Router) {
				r.Get("/", h.GetShipment)
				r.Patch("/", h.UpdateShipment)
				r.Post("/advance", h.AdvanceStage)
				r.Get("/timeline", h.Timeline)
				r.Post("/notes", h.AddNote)
				r.Post("/documents", h.UploadDocument)
				r.Route("/documents/{documentSlug}", func(r chi.Router) {
					r.Post("/verify", h.VerifyDocument)
					r.Post("/finalize", h.FinalizeDocument)
					r.Post("/review", h.SubmitReview)
				})
			})
		})
	})

	return r
}
