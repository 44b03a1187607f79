package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func createConfigHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/configs")
		defer span.End()

		var cfg domain.BankAccountConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		created, err := svc.CreateConfig(ctx, &cfg)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listConfigsHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/configs")
		defer span.End()

		configs, err := svc.ListConfigs(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"configs": configs, "count": len(configs)})
	}
}

func getConfigHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/configs/{configId}")
		defer span.End()

		cfg, err := svc.GetConfig(ctx, chi.URLParam(r, "configId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

type generateBoletoRequest struct {
	ConfigID       string          `json:"config_id"`
	DocumentNumber string          `json:"document_number"`
	DueDate        string          `json:"due_date"` // YYYY-MM-DD
	FaceValue      decimal.Decimal `json:"face_value"`
	Payer          domain.Payer    `json:"payer"`
}

func generateBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/boletos")
		defer span.End()

		var req generateBoletoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		var dueDate time.Time
		if req.DueDate != "" {
			var err error
			dueDate, err = time.Parse("2006-01-02", req.DueDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "due_date: expected YYYY-MM-DD")
				return
			}
		}

		b, err := svc.Generate(ctx, service.GenerateInput{
			ConfigID:       req.ConfigID,
			DocumentNumber: req.DocumentNumber,
			DueDate:        dueDate,
			FaceValue:      req.FaceValue,
			Payer:          req.Payer,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func getBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/boletos/{boletoId}")
		defer span.End()

		b, err := svc.Get(ctx, chi.URLParam(r, "boletoId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// Expose the derived status without mutating the stored one.
		writeJSON(w, http.StatusOK, boletoView{b, b.EffectiveStatus(time.Now().UTC())})
	}
}

// boletoView decorates a persisted boleto with the derived status for
// the instant of the request.
type boletoView struct {
	*domain.Boleto
	EffectiveStatus domain.BoletoStatus `json:"effective_status"`
}

func registerBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/boletos/{boletoId}/register")
		defer span.End()

		b, err := svc.Register(ctx, chi.URLParam(r, "boletoId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

type payBoletoRequest struct {
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	PaymentDate string          `json:"payment_date"` // YYYY-MM-DD, defaults to today
}

func payBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/boletos/{boletoId}/pay")
		defer span.End()

		var req payBoletoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		paymentDate := time.Now().UTC()
		if req.PaymentDate != "" {
			var err error
			paymentDate, err = time.Parse("2006-01-02", req.PaymentDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "payment_date: expected YYYY-MM-DD")
				return
			}
		}

		b, err := svc.MarkPaid(ctx, chi.URLParam(r, "boletoId"), req.PaidAmount, paymentDate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func cancelBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/boletos/{boletoId}/cancel")
		defer span.End()

		b, err := svc.Cancel(ctx, chi.URLParam(r, "boletoId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func listOverdueHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/boletos/overdue")
		defer span.End()

		asOf := time.Now().UTC()
		overdue, err := svc.ListOverdue(ctx, r.URL.Query().Get("config_id"), asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		views := make([]boletoView, 0, len(overdue))
		for _, b := range overdue {
			views = append(views, boletoView{b, b.EffectiveStatus(asOf)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"boletos": views, "count": len(views)})
	}
}

type digitableLineRequest struct {
	DigitableLine string `json:"digitable_line"`
}

func validateDigitableLineHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/boletos/digitable-line/validate")
		defer span.End()

		var req digitableLineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		barcode, err := service.ReconstructBarcode(req.DigitableLine)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"barcode": barcode})
	}
}
