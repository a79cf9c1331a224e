package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/services"
)

const maxBodyBytes = 1 << 20

// badRequest marks client errors that are not domain validation failures.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams reads year and month from the query, defaulting to now.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, badRequestf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, badRequestf("invalid month %q", v)
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// parseListOptions reads category, sort and order. The default is newest
// first.
func parseListOptions(query url.Values) (listing.Options, error) {
	key, err := core.ParseSortKey(query.Get("sort"))
	if err != nil {
		return listing.Options{}, badRequestf("%v", err)
	}
	opts := listing.Options{
		Category: strings.TrimSpace(query.Get("category")),
		SortKey:  key,
	}
	switch strings.ToLower(strings.TrimSpace(query.Get("order"))) {
	case "", "desc":
	case "asc":
		opts.Ascending = true
	default:
		return listing.Options{}, badRequestf("invalid order %q", query.Get("order"))
	}
	return opts, nil
}

// amountField accepts "12.50", "12,50" or a bare JSON number.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = amountField(n.String())
	return nil
}

type expenseRequest struct {
	Amount        amountField `json:"amount"`
	Category      string      `json:"category"`
	Date          string      `json:"date"`
	PaymentMethod string      `json:"payment_method"`
	Note          string      `json:"note"`
}

// decodeExpenseInput turns a JSON body into service input. Dates without a
// time are read as midnight in loc.
func decodeExpenseInput(r *http.Request, loc *time.Location) (services.ExpenseInput, error) {
	var req expenseRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return services.ExpenseInput{}, badRequestf("malformed request body: %v", err)
	}

	cents, err := core.ParseDecimalToCents(string(req.Amount))
	if err != nil {
		return services.ExpenseInput{}, err
	}
	pm, err := core.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	date, err := parseDate(req.Date, loc)
	if err != nil {
		return services.ExpenseInput{}, err
	}

	return services.ExpenseInput{
		Amount:        core.Money{Cents: cents},
		Category:      sanitizeInput(req.Category),
		Date:          date,
		PaymentMethod: pm,
		Note:          sanitizeInput(req.Note),
	}, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, badRequestf("invalid date %q: use RFC3339 or YYYY-MM-DD", s)
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func isBadRequest(err error) bool {
	var br *badRequest
	return errors.As(err, &br)
}
