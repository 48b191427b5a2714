package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCategory = "General"
	DefaultCurrency = "USD"
)

func init() {
	// Amounts travel as JSON numbers (12.5), not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type (
	// Moment is a calendar event, optionally carrying a cost.
	Moment struct {
		ID          int64           `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Date        string          `json:"date"`
		Time        string          `json:"time"`
		Category    string          `json:"category"`
		Cost        decimal.Decimal `json:"cost"`
		Currency    string          `json:"currency"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}

	// MoneyRecord is a standalone financial transaction.
	MoneyRecord struct {
		ID        int64           `json:"id"`
		Type      string          `json:"type"`
		Title     string          `json:"title"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Date      string          `json:"date"`
		Timestamp time.Time       `json:"timestamp"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
	}

	// MomentInput holds the caller-supplied fields of a moment. Zero values
	// mean "omitted" and are filled in by WithDefaults.
	MomentInput struct {
		Title       string
		Description string
		Date        string
		Time        string
		Category    string
		Cost        decimal.Decimal
		Currency    string
	}

	// MoneyInput holds the caller-supplied fields of a money record.
	// HasAmount distinguishes an explicit zero from a missing amount.
	MoneyInput struct {
		Type      string
		Title     string
		Amount    decimal.Decimal
		HasAmount bool
		Currency  string
		Date      string
	}
)

// Money record types the UI knows about. They are not enforced.
const (
	MoneyIncome      = "income"
	MoneyDebt        = "debt"
	MoneyConsumption = "consumption"
	MoneySavings     = "savings"
)

// WithDefaults returns a copy with every omitted optional field set to its default.
// This is the only place moment defaults are decided. Supplied values are kept
// as sent; a blank category or currency counts as omitted.
func (in MomentInput) WithDefaults() MomentInput {
	if strings.TrimSpace(in.Category) == "" {
		in.Category = DefaultCategory
	}
	if strings.TrimSpace(in.Currency) == "" {
		in.Currency = DefaultCurrency
	}
	return in
}

func (in MomentInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(in.Date) == "" {
		return ErrEmptyDate
	}
	if !storable(in.Cost) {
		return ErrInvalidAmount
	}
	return nil
}

// WithDefaults returns a copy with the currency defaulted.
func (in MoneyInput) WithDefaults() MoneyInput {
	if strings.TrimSpace(in.Currency) == "" {
		in.Currency = DefaultCurrency
	}
	return in
}

func (in MoneyInput) Validate() error {
	if strings.TrimSpace(in.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if !in.HasAmount {
		return ErrMissingAmount
	}
	if strings.TrimSpace(in.Date) == "" {
		return ErrEmptyDate
	}
	if !storable(in.Amount) {
		return ErrInvalidAmount
	}
	return nil
}
