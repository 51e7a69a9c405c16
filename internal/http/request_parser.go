package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"faturamento/internal/core"
	"faturamento/internal/projection"
	"faturamento/internal/services"
)

// maxBodyBytes bounds item payloads.
const maxBodyBytes = 64 << 10

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", strings.Join(methods, ", "))
}

// ParseLedger reads the ledger parameter, defaulting to revenue.
func ParseLedger(query url.Values) (core.Ledger, error) {
	v := strings.ToLower(strings.TrimSpace(query.Get("ledger")))
	if v == "" {
		return core.Revenue, nil
	}
	l := core.Ledger(v)
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidLedger, v)
	}
	return l, nil
}

// ParseBillingQuery turns the billing query string into a grid request.
// def is the wait applied when the client does not choose one.
func ParseBillingQuery(query url.Values, def time.Duration) (services.GridRequest, error) {
	ledger, err := ParseLedger(query)
	if err != nil {
		return services.GridRequest{}, err
	}
	req := services.GridRequest{
		Ledger: ledger,
		Layout: projection.ParseLayout(query.Get("layout")),
		Wait:   def,
	}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return services.GridRequest{}, fmt.Errorf("invalid page %q", v)
		}
		req.Page = page
	}

	if v := strings.TrimSpace(query.Get("now")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.GridRequest{}, fmt.Errorf("invalid now %q: %w", v, err)
		}
		req.Now = time.Date(d.Year(), time.Month(d.Month()), d.Day(), 12, 0, 0, 0, time.UTC)
	}

	if v := strings.TrimSpace(query.Get("wait")); v != "" {
		wait, err := parseWait(v, def)
		if err != nil {
			return services.GridRequest{}, err
		}
		req.Wait = wait
	}
	return req, nil
}

// parseWait accepts a boolean or a Go duration.
func parseWait(v string, def time.Duration) (time.Duration, error) {
	if b, err := strconv.ParseBool(v); err == nil {
		if b {
			return def, nil
		}
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid wait %q", v)
	}
	return min(d, maxBillingWait), nil
}

// amountField accepts a JSON string ("12,50") or number (12.5).
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountField(n.String())
	return nil
}

// itemRequest is the POST /api/items payload.
type itemRequest struct {
	Ledger       core.Ledger `json:"ledger"`
	Description  string      `json:"description"`
	Amount       amountField `json:"amount"`
	Date         string      `json:"date"`
	Category     string      `json:"category"`
	Frequency    string      `json:"frequency"`
	Installments int         `json:"installments"`
}

var errEmptyBody = errors.New("empty request body")

// DecodeItemRecord reads an item payload. Decoding problems are returned as
// plain errors; semantic validation is left to the item service.
func DecodeItemRecord(r *http.Request) (core.ItemRecord, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return core.ItemRecord{}, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return core.ItemRecord{}, errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return core.ItemRecord{}, errEmptyBody
	}

	var req itemRequest
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return core.ItemRecord{}, fmt.Errorf("decode item: %w", err)
	}
	if req.Ledger == "" {
		req.Ledger = core.Revenue
	}
	return core.ItemRecord{
		Ledger:       core.Ledger(strings.ToLower(string(req.Ledger))),
		Description:  sanitizeInput(req.Description),
		Amount:       strings.TrimSpace(string(req.Amount)),
		Date:         strings.TrimSpace(req.Date),
		Category:     sanitizeInput(req.Category),
		Frequency:    strings.TrimSpace(req.Frequency),
		Installments: req.Installments,
	}, nil
}

// sanitizeInput trims and drops control characters other than tab and newline.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
