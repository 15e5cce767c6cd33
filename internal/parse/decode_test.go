package parse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("decoder", func() {
	var (
		dec         *decoder
		text        string
		item        LineItem
		bothPrinted bool
		err         error
	)

	BeforeEach(func() {
		profile, profileErr := ProfileFor("sainsburys")
		Expect(profileErr).NotTo(HaveOccurred())
		dec = &decoder{profile: profile, tolerance: DefaultTolerance}
	})

	JustBeforeEach(func() {
		item, bothPrinted, err = dec.decodeLine(text)
	})

	When("decoding a glued counted line", func() {
		BeforeEach(func() {
			text = "2Sainsbury's Semi Skimmed Milk 2.27L £2.50"
		})

		It("should split count, name and total", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Quantity).To(Equal(2))
			Expect(item.Name).To(Equal("Sainsbury's Semi Skimmed Milk 2.27L"))
			Expect(item.TotalPrice).To(beDecimal("2.50"))
		})

		It("should derive the unit price", func() {
			Expect(bothPrinted).To(BeFalse())
			Expect(item.UnitPrice).To(beDecimal("1.25"))
		})
	})

	When("decoding a glued weighed line", func() {
		BeforeEach(func() {
			text = "0.68kgSainsbury's Bananas Loose £0.71"
		})

		It("should split weight, name and total", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Quantity).To(BeZero())
			Expect(item.Weight).To(beDecimal("0.68"))
			Expect(item.Name).To(Equal("Sainsbury's Bananas Loose"))
			Expect(item.TotalPrice).To(beDecimal("0.71"))
		})

		It("should derive the unit price from the total", func() {
			Expect(item.UnitPrice.Mul(item.Weight).Round(2)).To(beDecimal("0.71"))
		})
	})

	When("decoding a line with a per-weight rate", func() {
		BeforeEach(func() {
			text = "Bananas 0.68kg x £1.05/kg £0.71"
		})

		It("should take the printed unit price and total", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(bothPrinted).To(BeTrue())
			Expect(item.Name).To(Equal("Bananas"))
			Expect(item.Weight).To(beDecimal("0.68"))
			Expect(item.UnitPrice).To(beDecimal("1.05"))
			Expect(item.TotalPrice).To(beDecimal("0.71"))
		})
	})

	When("decoding a line with an explicit count marker", func() {
		BeforeEach(func() {
			text = "Free Range Eggs x2 £2.40"
		})

		It("should read the marker as the quantity", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Quantity).To(Equal(2))
			Expect(item.Name).To(Equal("Free Range Eggs"))
			Expect(item.UnitPrice).To(beDecimal("1.20"))
			Expect(item.TotalPrice).To(beDecimal("2.40"))
		})
	})

	When("decoding a name-first line with a single price", func() {
		BeforeEach(func() {
			text = "Sourdough Bread 400g £1.80"
		})

		It("should default the quantity to one", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Quantity).To(Equal(1))
			Expect(item.Name).To(Equal("Sourdough Bread 400g"))
			Expect(item.UnitPrice).To(beDecimal("1.80"))
		})
	})

	When("a pack size inside the name mentions a weight unit", func() {
		BeforeEach(func() {
			text = "1Sainsbury's Carrots 1kg £0.90"
		})

		It("should stay a counted item", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Quantity).To(Equal(1))
			Expect(item.Weight.IsZero()).To(BeTrue())
			Expect(item.Name).To(Equal("Sainsbury's Carrots 1kg"))
		})
	})

	When("decoding a line with no product name", func() {
		BeforeEach(func() {
			text = "£0.50"
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("decoding a rate line without a weight token", func() {
		BeforeEach(func() {
			text = "Grapes x £2.00/kg £1.00"
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("checkItem", func() {
		It("should pass a consistent counted item", func() {
			warn := dec.checkItem(LineItem{
				Name:       "Milk",
				Quantity:   2,
				UnitPrice:  decimal.RequireFromString("1.25"),
				TotalPrice: decimal.RequireFromString("2.50"),
			}, true)
			Expect(warn).To(BeEmpty())
		})

		It("should absorb weighed rounding within tolerance", func() {
			warn := dec.checkItem(LineItem{
				Name:       "Bananas",
				Weight:     decimal.RequireFromString("0.68"),
				UnitPrice:  decimal.RequireFromString("1.05"),
				TotalPrice: decimal.RequireFromString("0.71"),
			}, true)
			Expect(warn).To(BeEmpty())
		})

		It("should warn on a real mismatch", func() {
			warn := dec.checkItem(LineItem{
				Name:       "Apples",
				Weight:     decimal.RequireFromString("1.00"),
				UnitPrice:  decimal.RequireFromString("2.00"),
				TotalPrice: decimal.RequireFromString("3.50"),
			}, true)
			Expect(warn).NotTo(BeEmpty())
		})
	})
})
