package parse

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
)

// DefaultHeaderWindow covers the observed header size of the supported
// retailer's layout with slack for promotional banners.
const DefaultHeaderWindow = 10

// DefaultTolerance is one minor currency unit, absorbing the rounding the
// retailer applies when pricing weighed produce.
var DefaultTolerance = decimal.New(1, -2)

// OrderMetadata identifies the order a receipt belongs to. Both fields are
// required; a receipt without them is invalid input.
type OrderMetadata struct {
	OrderID   string    `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
}

// LineItem is one purchased product. Exactly one of Quantity and Weight is
// set: counted items carry a positive count, weighed items a positive weight
// in the retailer's unit.
type LineItem struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity,omitempty"`
	Weight     decimal.Decimal `json:"weight"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Reconciliation is the cross-check of summed item totals, less discounts,
// against the printed grand total.
type Reconciliation struct {
	Reconciled   bool            `json:"reconciled"`
	PrintedTotal decimal.Decimal `json:"printed_total"`
	ItemsTotal   decimal.Decimal `json:"items_total"`
	Discrepancy  decimal.Decimal `json:"discrepancy"`
}

// ParsedReceipt is the structured form of one receipt: order metadata plus
// the line items in order of appearance. It is created once per parse and
// never mutated afterwards.
type ParsedReceipt struct {
	Order          OrderMetadata  `json:"order"`
	Items          []LineItem     `json:"items"`
	Reconciliation Reconciliation `json:"reconciliation"`
	Diagnostics    []Diagnostic   `json:"diagnostics,omitempty"`
	// Partial is set when one or more item lines could not be decoded.
	Partial bool `json:"partial"`
}

// Options tune the parser. Zero values select the defaults.
type Options struct {
	HeaderWindow int
	Tolerance    decimal.Decimal
}

// Parser decodes receipts of one retailer. It holds no per-parse state, so a
// single Parser may serve concurrent parses.
type Parser struct {
	profile *Profile
	opts    Options
}

// NewParser creates a Parser for the given retailer profile.
func NewParser(profile *Profile, opts Options) *Parser {
	if opts.HeaderWindow <= 0 {
		opts.HeaderWindow = DefaultHeaderWindow
	}
	if opts.Tolerance.IsZero() {
		opts.Tolerance = DefaultTolerance
	}
	return &Parser{profile: profile, opts: opts}
}

// Profile returns the retailer profile this parser decodes.
func (p *Parser) Profile() *Profile {
	return p.profile
}

// Parse decodes one receipt's line sequence. A missing header is fatal and
// returns no receipt; every other defect is collected as a diagnostic on the
// result so the caller can decide whether a partial receipt is acceptable.
func (p *Parser) Parse(lines []extract.RawLine) (*ParsedReceipt, error) {
	meta, err := scanHeader(p.profile, lines, p.opts.HeaderWindow)
	if err != nil {
		return nil, err
	}

	b, diags := segment(p.profile, lines)

	dec := &decoder{profile: p.profile, tolerance: p.opts.Tolerance}
	items, discounts, decodeDiags := dec.decodeBlock(b.items)
	diags = append(diags, decodeDiags...)

	rec, recDiags := reconcile(p.profile, items, discounts, b.totals, p.opts.Tolerance)
	diags = append(diags, recDiags...)

	partial := false
	for _, d := range diags {
		if d.Code == DiagUnparsableLine {
			partial = true
			break
		}
	}

	return &ParsedReceipt{
		Order:          meta,
		Items:          items,
		Reconciliation: rec,
		Diagnostics:    diags,
		Partial:        partial,
	}, nil
}
