package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
)

var ordinalRe = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)`)

// scanHeader locates the order id and order date within the first window
// lines. Patterns are applied in document order and the first match wins for
// each field; there is no backtracking once a field is resolved.
func scanHeader(profile *Profile, lines []extract.RawLine, window int) (OrderMetadata, error) {
	if window > len(lines) {
		window = len(lines)
	}

	var meta OrderMetadata
	var haveID, haveDate bool
	for _, line := range lines[:window] {
		if !haveID {
			if m := profile.OrderIDPattern.FindStringSubmatch(line.Text); m != nil {
				meta.OrderID = strings.TrimSpace(m[1])
				haveID = true
			}
		}
		if !haveDate {
			if m := profile.OrderDatePattern.FindStringSubmatch(line.Text); m != nil {
				if date, ok := parseOrderDate(profile, m[1]); ok {
					meta.OrderDate = date
					haveDate = true
				}
			}
		}
		if haveID && haveDate {
			return meta, nil
		}
	}

	return OrderMetadata{}, &HeaderNotFoundError{
		Window:         window,
		MissingOrderID: !haveID,
		MissingDate:    !haveDate,
	}
}

// parseOrderDate normalizes a printed slot description like
// "Thursday 3rd August 2023, 9:00pm - 10:00pm" and parses it against the
// profile's date layouts. Only the slot start time is kept; ordinal suffixes
// are stripped because Go time layouts have no verb for them.
func parseOrderDate(profile *Profile, text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	text = ordinalRe.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, ",", "")
	if i := strings.Index(text, " - "); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)

	for _, layout := range profile.DateLayouts {
		if date, err := time.Parse(layout, text); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
