package parse

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
)

var _ = Describe("scanHeader", func() {
	var (
		profile *Profile
		lines   []extract.RawLine
		window  int
		meta    OrderMetadata
		err     error
	)

	BeforeEach(func() {
		var profileErr error
		profile, profileErr = ProfileFor("sainsburys")
		Expect(profileErr).NotTo(HaveOccurred())
		window = DefaultHeaderWindow
	})

	JustBeforeEach(func() {
		meta, err = scanHeader(profile, lines, window)
	})

	When("both header fields are present", func() {
		BeforeEach(func() {
			lines = receiptLines(
				"Sainsbury's Groceries",
				"Your receipt for order: 451289",
				"Slot time: Thursday 3rd August 2023, 9:00pm - 10:00pm",
			)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should resolve the order id", func() {
			Expect(meta.OrderID).To(Equal("451289"))
		})

		It("should resolve the slot start time", func() {
			Expect(meta.OrderDate).To(Equal(time.Date(2023, time.August, 3, 21, 0, 0, 0, time.UTC)))
		})
	})

	When("the slot has a morning start", func() {
		BeforeEach(func() {
			lines = receiptLines(
				"Your receipt for order: 12",
				"Slot time: Monday 21st August 2023, 9:00am - 10:00am",
			)
		})

		It("should strip the ordinal suffix and keep the start time", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.OrderDate).To(Equal(time.Date(2023, time.August, 21, 9, 0, 0, 0, time.UTC)))
		})
	})

	When("the slot line has no time component", func() {
		BeforeEach(func() {
			lines = receiptLines(
				"Your receipt for order: 12",
				"Slot time: Monday 21st August 2023",
			)
		})

		It("should fall back to the date-only layout", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.OrderDate).To(Equal(time.Date(2023, time.August, 21, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the order id line is missing", func() {
		BeforeEach(func() {
			lines = receiptLines(
				"Slot time: Thursday 3rd August 2023, 9:00pm - 10:00pm",
			)
		})

		It("should report which field is missing", func() {
			var headerErr *HeaderNotFoundError
			Expect(err).To(HaveOccurred())
			Expect(err).To(BeAssignableToTypeOf(headerErr))
			headerErr = err.(*HeaderNotFoundError)
			Expect(headerErr.MissingOrderID).To(BeTrue())
			Expect(headerErr.MissingDate).To(BeFalse())
		})
	})

	When("the date line is unparsable", func() {
		BeforeEach(func() {
			lines = receiptLines(
				"Your receipt for order: 12",
				"Slot time: sometime next week",
			)
		})

		It("should report the date as missing", func() {
			var headerErr *HeaderNotFoundError
			Expect(err).To(HaveOccurred())
			Expect(err).To(BeAssignableToTypeOf(headerErr))
			headerErr = err.(*HeaderNotFoundError)
			Expect(headerErr.MissingDate).To(BeTrue())
		})
	})
})
