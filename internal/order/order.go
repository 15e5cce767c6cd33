package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/parse"
)

// Order is a persisted receipt: the parsed header and item rows plus the
// parse summary and bookkeeping fields. Item rows are stored one unit per
// row so that each can be claimed separately.
type Order struct {
	ID          string             `json:"id"`
	Reference   string             `json:"reference"` // retailer order id
	OrderDate   time.Time          `json:"order_date"`
	Items       []Item             `json:"items"`
	Reconciled  bool               `json:"reconciled"`
	Discrepancy decimal.Decimal    `json:"discrepancy"`
	Partial     bool               `json:"partial"`
	Diagnostics []parse.Diagnostic `json:"diagnostics,omitempty"`
	Filename    string             `json:"filename"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Item is one unit row of an order. Multi-quantity line items are expanded
// into single-unit rows before persisting; weighed items keep their weight.
type Item struct {
	Name      string          `json:"name"`
	Weight    decimal.Decimal `json:"weight"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Price     decimal.Decimal `json:"price"`
	ClaimID   string          `json:"claim_id,omitempty"`
}

// Claim records one person taking a set of item rows on an order.
type Claim struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ClaimedBy   string          `json:"claimed_by"`
	ItemIndexes []int           `json:"item_indexes"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
