package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/core"
	applog "faturamento/internal/log"
	"faturamento/internal/projection"
	"faturamento/internal/services"
	"faturamento/internal/sheets/memory"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Format: applog.FormatText, Output: io.Discard})
}

type fakeBilling struct {
	grid projection.Grid
	err  error
	got  services.GridRequest
}

func (f *fakeBilling) Grid(_ context.Context, req services.GridRequest) (projection.Grid, error) {
	f.got = req
	return f.grid, f.err
}

type fakeItems struct {
	created []core.ItemRecord
	err     error
}

func (f *fakeItems) CreateItem(_ context.Context, rec core.ItemRecord) (core.ItemRecord, error) {
	if f.err != nil {
		return core.ItemRecord{}, f.err
	}
	rec.ID = "item-1"
	f.created = append(f.created, rec)
	return rec, nil
}

func (f *fakeItems) ListItems(_ context.Context, ledger core.Ledger) ([]core.ItemRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	cfg.Logger = quietLogger()
	s := NewServer(cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, ServerConfig{Ready: fakePinger{}})

	rr := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = serve(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	down := newTestServer(t, ServerConfig{Ready: fakePinger{err: errors.New("db gone")}})
	rr = serve(down, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(s, http.MethodPost, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestWriteTimeoutOutlastsLongestWait(t *testing.T) {
	tests := []struct {
		name string
		wait time.Duration
	}{
		{"default wait", 0},
		{"short wait", time.Second},
		{"wait above the cap", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, ServerConfig{BillingWait: tt.wait})
			assert.Greater(t, s.Server.WriteTimeout, maxBillingWait)
			assert.Greater(t, s.Server.WriteTimeout, tt.wait)
		})
	}
}

func TestNotFoundAndSuspicious(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	rr := serve(s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rr.Body.String())

	rr = serve(s, http.MethodGet, "/.git/config", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBillingHandlerPassesRequest(t *testing.T) {
	fb := &fakeBilling{grid: projection.Grid{Status: projection.StatusComputing, Rows: []projection.Row{}}}
	s := newTestServer(t, ServerConfig{Billing: fb})

	rr := serve(s, http.MethodGet, "/api/billing?ledger=expense&layout=narrow&page=1&wait=false", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.Expense, fb.got.Ledger)
	assert.Equal(t, projection.LayoutNarrow, fb.got.Layout)
	assert.Equal(t, 1, fb.got.Page)
	assert.Zero(t, fb.got.Wait)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "computing", body["status"])
}

func TestBillingHandlerErrors(t *testing.T) {
	fb := &fakeBilling{}
	s := newTestServer(t, ServerConfig{Billing: fb})

	rr := serve(s, http.MethodGet, "/api/billing?ledger=nope", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	fb.err = errors.New("sheet offline")
	rr = serve(s, http.MethodGet, "/api/billing", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"could not load billing"}`, rr.Body.String())

	fb.err = context.Canceled
	rr = serve(s, http.MethodGet, "/api/billing", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(s, http.MethodPost, "/api/billing", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCreateItemStatusCodes(t *testing.T) {
	fi := &fakeItems{}
	s := newTestServer(t, ServerConfig{Items: fi})

	rr := serve(s, http.MethodPost, "/api/items", `{"description":"Aluguel","amount":"1500","date":"2025-01-10","frequency":"Mensal Fixo"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"item-1"`)
	require.Len(t, fi.created, 1)

	rr = serve(s, http.MethodPost, "/api/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	fi.err = &services.ValidationError{Err: core.ErrInvalidAmount}
	rr = serve(s, http.MethodPost, "/api/items", `{"description":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid amount")

	fi.err = errors.New("disk full")
	rr = serve(s, http.MethodPost, "/api/items", `{"description":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = serve(s, http.MethodDelete, "/api/items", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCreateItemRateLimited(t *testing.T) {
	fi := &fakeItems{}
	s := newTestServer(t, ServerConfig{Items: fi})

	body := `{"description":"x","amount":"1","date":"2025-01-01","frequency":"Única"}`
	var last int
	for i := 0; i < 61; i++ {
		last = serve(s, http.MethodPost, "/api/items", body).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/items", "").Code)
}

func TestItemsAndBillingEndToEnd(t *testing.T) {
	store := memory.New()
	items := services.NewItemService(store, nil)
	billing := services.NewBillingService(store, services.BillingConfig{PageSizeWide: 10, PageSizeNarrow: 3})
	t.Cleanup(billing.Close)

	s := newTestServer(t, ServerConfig{Billing: billing, Items: items})

	rr := serve(s, http.MethodPost, "/api/items",
		`{"ledger":"revenue","description":"Consultoria","amount":"1.500,00","date":"2025-01-10","category":"Serviços","frequency":"mensal por tempo determinado","installments":3}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created core.ItemRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "1500.00", created.Amount)
	assert.Equal(t, core.LabelMonthlyTerm, created.Frequency)

	rr = serve(s, http.MethodGet, "/api/items?ledger=revenue", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":1`)

	rr = serve(s, http.MethodGet, "/api/billing?now=2025-01-15&layout=narrow&wait=5s", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var grid projection.Grid
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &grid))
	assert.Equal(t, projection.StatusDone, grid.Status)
	require.Len(t, grid.Columns, 4)
	assert.Equal(t, "jan/2025", grid.Columns[0].Label)
	assert.Equal(t, projection.TotalColumnKey, grid.Columns[3].Key)
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, "Serviços", grid.Rows[0].Category)
	assert.Equal(t, int64(450000), grid.Rows[0].Total.Cents)
	assert.Equal(t, int64(150000), grid.Rows[0].Cells[2].Cents)
	assert.Equal(t, int64(450000), grid.GrandTotal.Cents)
	assert.False(t, grid.Empty)

	rr = serve(s, http.MethodGet, "/api/billing?ledger=loan&now=2025-01-15", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &grid))
	assert.True(t, grid.Empty)
}
