package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func parseLayout(raw string) (domain.CnabLayout, error) {
	switch raw {
	case "240":
		return domain.Cnab240, nil
	case "400":
		return domain.Cnab400, nil
	default:
		return 0, &domain.ErrValidation{Field: "layout", Message: "must be 240 or 400"}
	}
}

type buildRemittanceRequest struct {
	ConfigID string `json:"config_id"`
	Layout   int    `json:"layout"`
}

func buildRemittanceHandler(svc *service.CnabService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cnab/remittances")
		defer span.End()

		var req buildRemittanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		layout, err := parseLayout(strconv.Itoa(req.Layout))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		batch, err := svc.BuildRemittance(ctx, req.ConfigID, layout)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, batch)
	}
}

func listBatchesHandler(svc *service.CnabService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cnab/batches")
		defer span.End()

		direction := domain.CnabDirection(r.URL.Query().Get("direction"))
		batches, err := svc.ListBatches(ctx, direction)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batches": batches, "count": len(batches)})
	}
}

func getBatchHandler(svc *service.CnabService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cnab/batches/{batchId}")
		defer span.End()

		batch, err := svc.GetBatch(ctx, chi.URLParam(r, "batchId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// download=true returns the raw file instead of JSON
		if r.URL.Query().Get("download") == "true" {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(batch.Content()))
			return
		}
		writeJSON(w, http.StatusOK, batch)
	}
}

// parseReturnHandler accepts the raw return file as the request body;
// the layout comes from the query string.
func parseReturnHandler(svc *service.CnabService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cnab/returns")
		defer span.End()

		layout, err := parseLayout(r.URL.Query().Get("layout"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil || len(raw) == 0 {
			writeError(w, http.StatusBadRequest, "empty return file")
			return
		}

		batch, err := svc.ParseReturn(ctx, layout, string(raw))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, batch)
	}
}

type applyReturnRequest struct {
	ConfigID string `json:"config_id"`
}

func applyReturnHandler(svc *service.CnabService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cnab/returns/{batchId}/apply")
		defer span.End()

		var req applyReturnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		outcome, err := svc.ApplyReturn(ctx, chi.URLParam(r, "batchId"), req.ConfigID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	}
}
