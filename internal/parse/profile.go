package parse

import (
	"fmt"
	"regexp"
)

// Profile is the pattern set for one retailer's receipt layout: header
// anchors, block sentinels and the item-line token grammar. All layout
// knowledge lives here as data so that a new retailer is a new profile, not
// a new branch in the parser.
type Profile struct {
	Name string

	// OrderIDPattern and OrderDatePattern each expose one capture group.
	OrderIDPattern   *regexp.Regexp
	OrderDatePattern *regexp.Regexp
	// DateLayouts are tried in order against the captured date text after
	// ordinal suffixes (1st, 2nd, ...) are stripped.
	DateLayouts []string

	// ItemsStart and ItemsEnd are the fixed phrases bounding the item block.
	ItemsStart string
	ItemsEnd   string

	// GrandTotalPattern matches the printed grand total in the totals block.
	GrandTotalPattern *regexp.Regexp
	// DiscountPattern matches a negative adjustment line, in the item block
	// or the totals block.
	DiscountPattern *regexp.Regexp

	// Item-line tokens, each with the amount in capture group 1.
	PricePattern          *regexp.Regexp // any monetary amount
	UnitPricePattern      *regexp.Regexp // per-weight amount, e.g. £1.05/kg
	WeightPattern         *regexp.Regexp // weight token, e.g. 0.68kg
	QuantityMarkerPattern *regexp.Regexp // explicit count marker, e.g. x2
	// LeadingAmountPattern matches a quantity or weight glued to the start of
	// the line; group 1 is the number, group 2 the weight unit if present.
	LeadingAmountPattern *regexp.Regexp
}

var profiles = map[string]*Profile{}

func register(p *Profile) {
	profiles[p.Name] = p
}

// ProfileFor looks up a registered retailer profile by name.
func ProfileFor(name string) (*Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown retailer profile: %q", name)
	}
	return p, nil
}

// ProfileNames lists the registered retailer profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	return names
}

func init() {
	register(sainsburys())
}

// sainsburys is the grammar for Sainsbury's online grocery receipts. The
// item block sits between "Delivery summary" and "Order summary"; item lines
// glue the amount to the product name ("2Semi Skimmed Milk £2.50",
// "0.68kgBananas Loose £0.71") and weight-priced items may instead print a
// per-kilogram rate ("Bananas 0.68kg x £1.05/kg £0.71").
func sainsburys() *Profile {
	return &Profile{
		Name:             "sainsburys",
		OrderIDPattern:   regexp.MustCompile(`^Your receipt for order:\s*(\S+)`),
		OrderDatePattern: regexp.MustCompile(`^Slot time:\s*(.+)$`),
		DateLayouts: []string{
			"Monday 2 January 2006 3:04pm",
			"Monday 2 January 2006",
		},
		ItemsStart:            "Delivery summary",
		ItemsEnd:              "Order summary",
		GrandTotalPattern:     regexp.MustCompile(`^Total(?: paid)?\b.*?£(\d+(?:\.\d{1,2})?)`),
		DiscountPattern:       regexp.MustCompile(`-£(\d+(?:\.\d{1,2})?)`),
		PricePattern:          regexp.MustCompile(`£(\d+(?:\.\d{1,2})?)`),
		UnitPricePattern:      regexp.MustCompile(`£(\d+(?:\.\d{1,2})?)\s*/\s*kg`),
		WeightPattern:         regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kg`),
		QuantityMarkerPattern: regexp.MustCompile(`\bx\s*(\d+)\b`),
		LeadingAmountPattern:  regexp.MustCompile(`^(\d+(?:\.\d+)?)(kg)?`),
	}
}
