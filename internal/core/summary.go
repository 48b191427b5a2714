package core

import "github.com/shopspring/decimal"

// Aggregates never mix currencies: every row is keyed by its currency too.
type (
	// CategorySummary aggregates moments with a positive cost.
	CategorySummary struct {
		Category string          `json:"category"`
		Count    int64           `json:"count"`
		Total    decimal.Decimal `json:"total"`
		Average  decimal.Decimal `json:"average"`
		Currency string          `json:"currency"`
	}

	// TypeSummary aggregates money records by type.
	TypeSummary struct {
		Type     string          `json:"type"`
		Count    int64           `json:"count"`
		Total    decimal.Decimal `json:"total"`
		Average  decimal.Decimal `json:"average"`
		Currency string          `json:"currency"`
	}

	CurrencyTotal struct {
		Total    decimal.Decimal `json:"total"`
		Currency string          `json:"currency"`
	}

	// UpdateResult reports how many rows an update touched; zero means no row matched.
	UpdateResult struct {
		ID      int64 `json:"id"`
		Changes int64 `json:"changes"`
	}

	// DeleteResult reports how many rows a delete removed; zero means no row matched.
	DeleteResult struct {
		ID      int64 `json:"id"`
		Deleted int64 `json:"deleted"`
	}
)
