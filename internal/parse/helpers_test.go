package parse

import (
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
	"github.com/shopspring/decimal"
)

// beDecimal matches a decimal.Decimal against its string form, comparing by
// value so that "2.50" and "2.5" are equal.
func beDecimal(expected string) types.GomegaMatcher {
	want := decimal.RequireFromString(expected)
	return WithTransform(func(got decimal.Decimal) bool {
		return got.Equal(want)
	}, BeTrue())
}
