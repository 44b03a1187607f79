package handler

import (
	"net/http"
	"time"

	"github.com/obrafin/recon-go/internal/infra/observability"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(boletoSvc *service.BoletoService, pixSvc *service.PixService, cnabSvc *service.CnabService, reconSvc *service.ReconService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TraceContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Issuing account configurations
		r.Post("/configs", createConfigHandler(boletoSvc, logger))
		r.Get("/configs", listConfigsHandler(boletoSvc, logger))
		r.Get("/configs/{configId}", getConfigHandler(boletoSvc, logger))

		// Boletos
		r.Post("/boletos", generateBoletoHandler(boletoSvc, logger))
		r.Get("/boletos/overdue", listOverdueHandler(boletoSvc, logger))
		r.Get("/boletos/{boletoId}", getBoletoHandler(boletoSvc, logger))
		r.Post("/boletos/{boletoId}/register", registerBoletoHandler(boletoSvc, logger))
		r.Post("/boletos/{boletoId}/pay", payBoletoHandler(boletoSvc, logger))
		r.Post("/boletos/{boletoId}/cancel", cancelBoletoHandler(boletoSvc, logger))
		r.Post("/boletos/digitable-line/validate", validateDigitableLineHandler(logger))

		// PIX keys and charges
		r.Post("/pix/keys", registerPixKeyHandler(pixSvc, logger))
		r.Get("/pix/keys", listPixKeysHandler(pixSvc, logger))
		r.Delete("/pix/keys/{keyId}", deactivatePixKeyHandler(pixSvc, logger))
		r.Post("/pix/charges", createPixChargeHandler(pixSvc, logger))
		r.Get("/pix/charges/{chargeId}", getPixChargeHandler(pixSvc, logger))
		r.Post("/pix/charges/{chargeId}/approve", approvePixChargeHandler(pixSvc, logger))
		r.Post("/pix/charges/{chargeId}/reject", rejectPixChargeHandler(pixSvc, logger))
		r.Post("/pix/charges/{chargeId}/cancel", cancelPixChargeHandler(pixSvc, logger))
		r.Post("/pix/charges/{chargeId}/refund", refundPixChargeHandler(pixSvc, logger))

		// CNAB file exchange
		r.Post("/cnab/remittances", buildRemittanceHandler(cnabSvc, logger))
		r.Get("/cnab/batches", listBatchesHandler(cnabSvc, logger))
		r.Get("/cnab/batches/{batchId}", getBatchHandler(cnabSvc, logger))
		r.Post("/cnab/returns", parseReturnHandler(cnabSvc, logger))
		r.Post("/cnab/returns/{batchId}/apply", applyReturnHandler(cnabSvc, logger))

		// Reconciliation
		r.Post("/reconciliation/statements", importStatementHandler(reconSvc, logger))
		r.Post("/reconciliation/match", matchBatchHandler(reconSvc, logger))
		r.Post("/reconciliation/matches/manual", manualMatchHandler(reconSvc, logger))
		r.Get("/reconciliation/matches", listMatchesHandler(reconSvc, logger))
		r.Delete("/reconciliation/matches/{matchId}", invalidateMatchHandler(reconSvc, logger))
		r.Get("/reconciliation/summary", summaryHandler(reconSvc, logger))

		// Metrics snapshot
		r.Get("/metrics/reconciliation", reconMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func reconMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetReconciliationSnapshot())
	}
}
