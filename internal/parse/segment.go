package parse

import (
	"fmt"
	"strings"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
)

// blocks is the partition of a receipt's lines around its item block.
type blocks struct {
	items  []extract.RawLine
	totals []extract.RawLine
}

// segment splits the receipt lines into the item block and the totals block
// using the profile's sentinel phrases. A missing start sentinel means the
// item block begins at the first line; a missing end sentinel means the whole
// remainder is treated as items and the receipt is flagged truncated.
func segment(profile *Profile, lines []extract.RawLine) (blocks, []Diagnostic) {
	start := -1
	end := -1
	for i, line := range lines {
		switch {
		case start == -1 && strings.HasPrefix(line.Text, profile.ItemsStart):
			start = i
		case start != -1 && end == -1 && strings.HasPrefix(line.Text, profile.ItemsEnd):
			end = i
		}
	}

	var b blocks
	var diags []Diagnostic
	switch {
	case end == -1:
		b.items = lines[start+1:]
		line := -1
		if len(lines) > 0 {
			line = lines[len(lines)-1].Index
		}
		diags = append(diags, Diagnostic{
			Code:    DiagTruncatedReceipt,
			Line:    line,
			Message: fmt.Sprintf("no terminating sentinel %q; treating remainder as items", profile.ItemsEnd),
		})
	default:
		b.items = lines[start+1 : end]
		b.totals = lines[end+1:]
	}
	return b, diags
}
