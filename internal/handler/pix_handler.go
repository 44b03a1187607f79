package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type registerPixKeyRequest struct {
	KeyType  domain.PixKeyType `json:"key_type"`
	KeyValue string            `json:"key_value"`
}

func registerPixKeyHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/pix/keys")
		defer span.End()

		var req registerPixKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		k, err := svc.RegisterKey(ctx, req.KeyType, req.KeyValue)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, k)
	}
}

func listPixKeysHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/pix/keys")
		defer span.End()

		keys, err := svc.ListKeys(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
	}
}

func deactivatePixKeyHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/pix/keys/{keyId}")
		defer span.End()

		if err := svc.DeactivateKey(ctx, chi.URLParam(r, "keyId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type createPixChargeRequest struct {
	KeyID       string          `json:"key_id"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description"`
	TTLSeconds  int             `json:"ttl_seconds"`
}

func createPixChargeHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/pix/charges")
		defer span.End()

		var req createPixChargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		tx, err := svc.CreateCharge(ctx, req.KeyID, req.Value, req.Description, time.Duration(req.TTLSeconds)*time.Second)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func getPixChargeHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/pix/charges/{chargeId}")
		defer span.End()

		tx, err := svc.Get(ctx, chi.URLParam(r, "chargeId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func approvePixChargeHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	type approveRequest struct {
		ApprovedAt *time.Time `json:"approved_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/pix/charges/{chargeId}/approve")
		defer span.End()

		// The body is optional; an absent approved_at means "now".
		var req approveRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
		approvedAt := time.Time{}
		if req.ApprovedAt != nil {
			approvedAt = req.ApprovedAt.UTC()
		}

		tx, err := svc.Approve(ctx, chi.URLParam(r, "chargeId"), approvedAt)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func rejectPixChargeHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return pixTransitionHandler("POST /v1/pix/charges/{chargeId}/reject", svc.Reject, logger)
}

func cancelPixChargeHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return pixTransitionHandler("POST /v1/pix/charges/{chargeId}/cancel", svc.CancelCharge, logger)
}

func refundPixChargeHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return pixTransitionHandler("POST /v1/pix/charges/{chargeId}/refund", svc.Refund, logger)
}

func pixTransitionHandler(spanName string, op func(ctx context.Context, id string) (*domain.PixTransaction, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), spanName)
		defer span.End()

		tx, err := op(ctx, chi.URLParam(r, "chargeId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}
