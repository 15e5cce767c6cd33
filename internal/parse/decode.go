package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
)

// stitchState drives multi-line name accumulation. A physical line with no
// price token cannot resolve an item on its own; its text is carried forward
// until a priced line arrives.
type stitchState int

const (
	awaitingItemStart stitchState = iota
	accumulatingName
	itemResolved
)

// discount is one negative adjustment found while decoding.
type discount struct {
	amount decimal.Decimal
	line   int
}

// decoder turns the item block into line items.
type decoder struct {
	profile   *Profile
	tolerance decimal.Decimal
}

// decodeBlock runs the stitching state machine over the item block and
// decodes every resolved logical line. A line that matches no grammar rule
// becomes a diagnostic, not an error: the rest of the receipt is still
// usable.
func (d *decoder) decodeBlock(lines []extract.RawLine) ([]LineItem, []discount, []Diagnostic) {
	var (
		items     []LineItem
		discounts []discount
		diags     []Diagnostic

		state     = awaitingItemStart
		pending   []string
		firstLine = -1
	)

	for _, line := range lines {
		if !d.profile.PricePattern.MatchString(line.Text) {
			if state != accumulatingName {
				firstLine = line.Index
				state = accumulatingName
			}
			pending = append(pending, line.Text)
			continue
		}

		text := strings.Join(append(pending, line.Text), " ")
		lineNo := line.Index
		if state == accumulatingName {
			lineNo = firstLine
		}
		pending, firstLine, state = nil, -1, itemResolved

		if m := d.profile.DiscountPattern.FindStringSubmatch(text); m != nil {
			if amount, err := decimal.NewFromString(m[1]); err == nil {
				discounts = append(discounts, discount{amount: amount, line: lineNo})
				continue
			}
		}

		item, bothPrinted, err := d.decodeLine(text)
		if err != nil {
			diags = append(diags, Diagnostic{
				Code:    DiagUnparsableLine,
				Line:    lineNo,
				Message: (&UnparsableLineError{Line: lineNo, Text: text}).Error() + ": " + err.Error(),
			})
			continue
		}
		if warn := d.checkItem(item, bothPrinted); warn != "" {
			diags = append(diags, Diagnostic{Code: DiagItemPriceMismatch, Line: lineNo, Message: warn})
		}
		items = append(items, item)
	}

	// File ended mid-item: the accumulated name never met a priced line.
	if len(pending) > 0 {
		diags = append(diags, Diagnostic{
			Code:    DiagUnparsableLine,
			Line:    firstLine,
			Message: (&UnparsableLineError{Line: firstLine, Text: strings.Join(pending, " ")}).Error() + ": no price token before end of block",
		})
	}

	return items, discounts, diags
}

// decodeLine splits one logical item line into name, quantity or weight, and
// prices. Weight-priced layouts are detected first, then counted layouts.
// The second return value reports whether the retailer printed both the unit
// price and the line total, making the price identity checkable.
func (d *decoder) decodeLine(text string) (LineItem, bool, error) {
	prices := d.profile.PricePattern.FindAllStringSubmatchIndex(text, -1)
	if len(prices) == 0 {
		return LineItem{}, false, fmt.Errorf("no price token")
	}
	unit := d.profile.UnitPricePattern.FindStringSubmatchIndex(text)

	// Prices inside the per-weight rate are not candidates for the line total.
	var totals [][]int
	for _, m := range prices {
		if unit != nil && m[0] >= unit[0] && m[1] <= unit[1] {
			continue
		}
		totals = append(totals, m)
	}

	firstToken := len(text)
	if len(totals) > 0 {
		firstToken = totals[0][0]
	}
	if unit != nil && unit[0] < firstToken {
		firstToken = unit[0]
	}

	if unit != nil {
		return d.decodeRated(text, unit, totals, firstToken)
	}
	return d.decodeCounted(text, totals, firstToken)
}

// decodeRated handles lines carrying an explicit per-weight rate, e.g.
// "Bananas 0.68kg x £1.05/kg £0.71".
func (d *decoder) decodeRated(text string, unit []int, totals [][]int, firstToken int) (LineItem, bool, error) {
	unitPrice, err := decimal.NewFromString(text[unit[2]:unit[3]])
	if err != nil {
		return LineItem{}, false, fmt.Errorf("unit price: %w", err)
	}

	// The weight is the last token printed before the rate; pack sizes inside
	// the product name sit further left and lose.
	var wm []int
	for _, m := range d.profile.WeightPattern.FindAllStringSubmatchIndex(text[:unit[0]], -1) {
		wm = m
	}
	if wm == nil {
		return LineItem{}, false, fmt.Errorf("per-weight rate with no weight token")
	}
	weight, err := decimal.NewFromString(text[wm[2]:wm[3]])
	if err != nil || !weight.IsPositive() {
		return LineItem{}, false, fmt.Errorf("bad weight token %q", text[wm[0]:wm[1]])
	}

	item := LineItem{Weight: weight, UnitPrice: unitPrice}
	bothPrinted := false
	if len(totals) > 0 {
		last := totals[len(totals)-1]
		total, err := decimal.NewFromString(text[last[2]:last[3]])
		if err != nil {
			return LineItem{}, false, fmt.Errorf("total price: %w", err)
		}
		item.TotalPrice = total
		bothPrinted = true
	} else {
		item.TotalPrice = weight.Mul(unitPrice).Round(2)
	}

	if wm[0] == 0 {
		item.Name = cleanName(text[wm[1]:firstToken])
	} else {
		item.Name = cleanName(text[:wm[0]])
	}
	if item.Name == "" {
		return LineItem{}, false, fmt.Errorf("empty item name")
	}
	return item, bothPrinted, nil
}

// decodeCounted handles quantity-priced lines, including the glued layout
// where the count or weight prefixes the name ("2Semi Skimmed Milk £2.50",
// "0.68kgBananas Loose £0.71").
func (d *decoder) decodeCounted(text string, totals [][]int, firstToken int) (LineItem, bool, error) {
	if len(totals) == 0 {
		return LineItem{}, false, fmt.Errorf("no total price")
	}
	last := totals[len(totals)-1]
	total, err := decimal.NewFromString(text[last[2]:last[3]])
	if err != nil {
		return LineItem{}, false, fmt.Errorf("total price: %w", err)
	}

	if lm := d.profile.LeadingAmountPattern.FindStringSubmatchIndex(text); lm != nil {
		if lm[4] >= 0 {
			// Glued leading weight; the unit price is derived from the total.
			weight, err := decimal.NewFromString(text[lm[2]:lm[3]])
			if err != nil || !weight.IsPositive() {
				return LineItem{}, false, fmt.Errorf("bad weight token %q", text[lm[0]:lm[1]])
			}
			item := LineItem{
				Name:       cleanName(text[lm[1]:firstToken]),
				Weight:     weight,
				UnitPrice:  safeDiv(total, weight),
				TotalPrice: total,
			}
			if item.Name == "" {
				return LineItem{}, false, fmt.Errorf("empty item name")
			}
			return item, false, nil
		}
		if qty, err := strconv.Atoi(text[lm[2]:lm[3]]); err == nil && qty > 0 {
			return d.countedItem(text, lm[3], firstToken, qty, total, totals)
		}
		// A leading decimal without a weight unit reads as part of the name.
	}

	// Explicit count marker before the prices; a single unit otherwise.
	qty := 1
	nameEnd := firstToken
	if mm := d.profile.QuantityMarkerPattern.FindStringSubmatchIndex(text[:firstToken]); mm != nil {
		if n, err := strconv.Atoi(text[mm[2]:mm[3]]); err == nil && n > 0 {
			qty = n
			nameEnd = mm[0]
		}
	}
	return d.countedItem(text, 0, nameEnd, qty, total, totals)
}

func (d *decoder) countedItem(text string, nameStart, nameEnd, qty int, total decimal.Decimal, totals [][]int) (LineItem, bool, error) {
	item := LineItem{Quantity: qty, TotalPrice: total}

	// Two printed prices mean the retailer gave the unit price and the line
	// total; with one, the unit price is derived algebraically.
	bothPrinted := false
	if len(totals) >= 2 {
		first := totals[0]
		if unit, err := decimal.NewFromString(text[first[2]:first[3]]); err == nil {
			item.UnitPrice = unit
			bothPrinted = true
		}
	}
	if !bothPrinted {
		item.UnitPrice = safeDiv(total, decimal.NewFromInt(int64(qty)))
	}

	item.Name = cleanName(text[nameStart:nameEnd])
	if item.Name == "" {
		return LineItem{}, false, fmt.Errorf("empty item name")
	}
	return item, bothPrinted, nil
}

// checkItem verifies total = amount * unit price within tolerance when the
// retailer printed both sides. A violation is a warning, not a failure.
func (d *decoder) checkItem(item LineItem, bothPrinted bool) string {
	if !bothPrinted {
		return ""
	}
	var expected decimal.Decimal
	if item.Weight.IsPositive() {
		expected = item.Weight.Mul(item.UnitPrice)
	} else {
		expected = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	if item.TotalPrice.Sub(expected).Abs().GreaterThan(d.tolerance) {
		return fmt.Sprintf("printed total %s differs from computed %s for %q", item.TotalPrice, expected.Round(2), item.Name)
	}
	return ""
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " x")
	return strings.Trim(s, " -,")
}

func safeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, 4)
}
