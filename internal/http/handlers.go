package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"faturamento/internal/core"
	applog "faturamento/internal/log"
	"faturamento/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	NewJSONResponse(map[string]string{"status": "ok"}).Write(w)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFound("not found").Write(w)
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		"method", r.Method, "path", r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
			ServiceUnavailable("backend unavailable").Write(w)
			return
		}
	}
	NewJSONResponse(map[string]string{"status": "ready"}).Write(w)
}

// handleBilling renders one page of a ledger's projection. A projection that
// does not finish within the wait is reported with status "computing".
func (s *Server) handleBilling(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	req, err := ParseBillingQuery(r.URL.Query(), s.billingWait)
	if err != nil {
		BadRequest(err.Error()).Write(w)
		return
	}

	grid, err := s.billing.Grid(ctx, req)
	if err != nil {
		switch {
		case services.IsValidation(err):
			BadRequest(err.Error()).Write(w)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			applog.FromContext(ctx).WarnContext(ctx, "Billing request abandoned", "error", err)
			ServiceUnavailable("request cancelled").Write(w)
		default:
			applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Billing grid failed", err,
				applog.ComponentBilling, applog.OpProject, applog.NewFields().WithLedger(string(req.Ledger)))
			InternalServerError("could not load billing").Write(w)
		}
		return
	}
	NewJSONResponse(grid).Write(w)
}

type itemsResponse struct {
	Ledger core.Ledger       `json:"ledger"`
	Items  []core.ItemRecord `json:"items"`
	Count  int               `json:"count"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListItems(w, r)
	case http.MethodPost:
		s.handleCreateItem(w, r)
	default:
		RequireMethod(r, http.MethodGet, http.MethodPost).Write(w)
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ledger, err := ParseLedger(r.URL.Query())
	if err != nil {
		BadRequest(err.Error()).Write(w)
		return
	}
	records, err := s.items.ListItems(ctx, ledger)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "List items failed", err,
			applog.ComponentItems, applog.OpList, applog.NewFields().WithLedger(string(ledger)))
		InternalServerError("could not list items").Write(w)
		return
	}
	if records == nil {
		records = []core.ItemRecord{}
	}
	NewJSONResponse(itemsResponse{Ledger: ledger, Items: records, Count: len(records)}).Write(w)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := DecodeItemRecord(r)
	if err != nil {
		BadRequest(err.Error()).Write(w)
		return
	}

	created, err := s.items.CreateItem(ctx, rec)
	if err != nil {
		if services.IsValidation(err) {
			UnprocessableEntity(err.Error()).Write(w)
			return
		}
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Create item failed", err,
			applog.ComponentItems, applog.OpCreate, applog.NewFields().WithLedger(string(rec.Ledger)))
		InternalServerError("could not save item").Write(w)
		return
	}
	NewJSONResponse(created).
		Status(http.StatusCreated).
		Header("Location", "/api/items?ledger="+string(created.Ledger)).
		Write(w)
}
