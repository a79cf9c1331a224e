package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Cash PaymentMethod = "Cash"
	Card PaymentMethod = "Card"
	UPI  PaymentMethod = "UPI"
)

// PlaceholderCategory is what the entry form shows before a category is picked.
const PlaceholderCategory = "Select Category"

// OtherCategory is the bucket for expenses stored without a category.
const OtherCategory = "Other"

type (
	PaymentMethod string

	Expense struct {
		ID            string
		Amount        Money
		Category      string
		Date          time.Time // zero means undated
		PaymentMethod PaymentMethod
		Note          string
		Symbol        string // icon name fixed at write time
		CreatedAt     time.Time
	}

	// Color is an RGB triple with channels in [0,1].
	Color struct {
		R, G, B float64
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyCategory        = errors.New("category not selected")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// PaymentMethods lists the accepted payment methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{Cash, Card, UPI}
}

func (p PaymentMethod) Validate() error {
	switch p {
	case Cash, Card, UPI:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, string(p))
	}
}

// ParsePaymentMethod matches s case-insensitively; empty input means Cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cash, nil
	}
	for _, p := range PaymentMethods() {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

// Validate checks the invariants that must hold before an expense is persisted.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	category := strings.TrimSpace(e.Category)
	if category == "" || category == PlaceholderCategory {
		return ErrEmptyCategory
	}
	if err := e.PaymentMethod.Validate(); err != nil {
		return err
	}
	return nil
}

// HasDate reports whether the expense carries a transaction date.
func (e Expense) HasDate() bool {
	return !e.Date.IsZero()
}

// SymbolForCategory returns the icon name stored alongside an expense.
func SymbolForCategory(category string) string {
	switch category {
	case "Food":
		return "fork.knife"
	case "Transport":
		return "car.fill"
	case "Shopping":
		return "bag.fill"
	case "Bills":
		return "bolt.fill"
	case "Entertainment":
		return "film.fill"
	case "Health":
		return "cross.case.fill"
	case OtherCategory:
		return "questionmark.circle.fill"
	default:
		return "creditcard.fill"
	}
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
)

// SortKey names the field an expense list is ordered by.
type SortKey string

// ParseSortKey matches s case-insensitively; empty input means SortByDate.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDate:
		return SortByDate, nil
	case SortByAmount:
		return SortByAmount, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}
