package parse

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
)

// reconcile sums the decoded item totals, applies discount adjustments and
// compares the result against the printed grand total. It always produces a
// result: a mismatch is a diagnostic, never a reason to drop the parse.
func reconcile(profile *Profile, items []LineItem, discounts []discount, totals []extract.RawLine, tolerance decimal.Decimal) (Reconciliation, []Diagnostic) {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	for _, disc := range discounts {
		sum = sum.Sub(disc.amount)
	}

	printed := decimal.Zero
	printedLine := -1
	found := false
	for _, line := range totals {
		// Discount lines first: "Total savings -£1.50" must not be read as
		// the grand total.
		if m := profile.DiscountPattern.FindStringSubmatch(line.Text); m != nil {
			if v, err := decimal.NewFromString(m[1]); err == nil {
				sum = sum.Sub(v)
			}
			continue
		}
		if m := profile.GrandTotalPattern.FindStringSubmatch(line.Text); m != nil {
			if v, err := decimal.NewFromString(m[1]); err == nil {
				// Last total line wins: "Total paid" follows "Total".
				printed = v
				printedLine = line.Index
				found = true
			}
		}
	}

	rec := Reconciliation{ItemsTotal: sum, PrintedTotal: printed}
	if !found {
		rec.Discrepancy = sum
		return rec, []Diagnostic{{
			Code:    DiagTotalMismatch,
			Line:    -1,
			Message: "no printed grand total to reconcile against",
		}}
	}

	rec.Discrepancy = sum.Sub(printed)
	rec.Reconciled = rec.Discrepancy.Abs().LessThanOrEqual(tolerance)
	if !rec.Reconciled {
		return rec, []Diagnostic{{
			Code:    DiagTotalMismatch,
			Line:    printedLine,
			Message: fmt.Sprintf("items sum to %s but receipt prints %s", sum, printed),
		}}
	}
	return rec, nil
}
