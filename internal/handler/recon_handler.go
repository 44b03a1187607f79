package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// importStatementHandler accepts the raw statement text as the body.
func importStatementHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reconciliation/statements")
		defer span.End()

		raw, err := io.ReadAll(r.Body)
		if err != nil || len(raw) == 0 {
			writeError(w, http.StatusBadRequest, "empty statement")
			return
		}

		entries, err := svc.ImportStatement(ctx, string(raw))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entries": entries, "count": len(entries)})
	}
}

func matchBatchHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reconciliation/match")
		defer span.End()

		from, to, err := parsePeriod(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		results, err := svc.MatchBatch(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
	}
}

type manualMatchRequest struct {
	EntryID    string                 `json:"entry_id"`
	TargetType domain.MatchTargetType `json:"target_type"`
	TargetID   string                 `json:"target_id"`
}

func manualMatchHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reconciliation/matches/manual")
		defer span.End()

		var req manualMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		m, err := svc.MatchManually(ctx, req.EntryID, req.TargetType, req.TargetID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func listMatchesHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reconciliation/matches")
		defer span.End()

		manualOnly := r.URL.Query().Get("manual") == "true"
		matches, err := svc.ListMatches(ctx, manualOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": matches, "count": len(matches)})
	}
}

func invalidateMatchHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/reconciliation/matches/{matchId}")
		defer span.End()

		m, err := svc.InvalidateMatch(ctx, chi.URLParam(r, "matchId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func summaryHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reconciliation/summary")
		defer span.End()

		from, to, err := parsePeriod(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.Summarize(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
