package order

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	testOrder := func(id, reference string) *Order {
		return &Order{
			ID:        id,
			Reference: reference,
			OrderDate: time.Date(2023, 8, 3, 21, 0, 0, 0, time.UTC),
			Items: []Item{
				{Name: "Milk", UnitPrice: decimal.RequireFromString("1.25"), Price: decimal.RequireFromString("1.25")},
				{Name: "Bananas", Weight: decimal.RequireFromString("0.68"), Price: decimal.RequireFromString("0.71")},
			},
			Reconciled: true,
			Filename:   "test.pdf",
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
	}

	Describe("SaveOrder", func() {
		var err error

		JustBeforeEach(func() {
			err = db.SaveOrder(testOrder("test-id", "451289"))
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the order to the database", func() {
				saved, getErr := db.GetOrder("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
			})
		})
	})

	Describe("GetOrder", func() {
		var (
			orderID string
			order   *Order
			err     error
		)

		JustBeforeEach(func() {
			order, err = db.GetOrder(orderID)
		})

		When("the order exists", func() {
			BeforeEach(func() {
				orderID = "test-id"
				Expect(db.SaveOrder(testOrder("test-id", "451289"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the stored fields", func() {
				Expect(order.Reference).To(Equal("451289"))
				Expect(order.Reconciled).To(BeTrue())
			})

			It("should round-trip the item amounts", func() {
				Expect(order.Items).To(HaveLen(2))
				Expect(order.Items[0].Price.Equal(decimal.RequireFromString("1.25"))).To(BeTrue())
				Expect(order.Items[1].Weight.Equal(decimal.RequireFromString("0.68"))).To(BeTrue())
			})
		})

		When("the order does not exist", func() {
			BeforeEach(func() {
				orderID = "nonexistent"
			})

			It("returns ErrNotFound", func() {
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("GetOrderByReference", func() {
		BeforeEach(func() {
			Expect(db.SaveOrder(testOrder("id1", "451289"))).NotTo(HaveOccurred())
			Expect(db.SaveOrder(testOrder("id2", "451290"))).NotTo(HaveOccurred())
		})

		When("an order carries the reference", func() {
			It("should return it", func() {
				order, err := db.GetOrderByReference("451290")
				Expect(err).NotTo(HaveOccurred())
				Expect(order.ID).To(Equal("id2"))
			})
		})

		When("no order carries the reference", func() {
			It("returns ErrNotFound", func() {
				_, err := db.GetOrderByReference("999999")
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("ListOrders", func() {
		var (
			orders []*Order
			err    error
		)

		JustBeforeEach(func() {
			orders, err = db.ListOrders()
		})

		When("orders exist", func() {
			BeforeEach(func() {
				Expect(db.SaveOrder(testOrder("id1", "451289"))).NotTo(HaveOccurred())
				Expect(db.SaveOrder(testOrder("id2", "451290"))).NotTo(HaveOccurred())
			})

			It("should return all orders", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(orders).To(HaveLen(2))
			})
		})

		When("no orders exist", func() {
			It("should return an empty list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(orders).To(BeEmpty())
			})
		})
	})

	Describe("DeleteOrder", func() {
		var (
			orderID string
			err     error
		)

		JustBeforeEach(func() {
			err = db.DeleteOrder(orderID)
		})

		When("the order exists", func() {
			BeforeEach(func() {
				orderID = "test-id"
				Expect(db.SaveOrder(testOrder("test-id", "451289"))).NotTo(HaveOccurred())
			})

			It("should remove the order from the database", func() {
				Expect(err).NotTo(HaveOccurred())
				_, getErr := db.GetOrder("test-id")
				Expect(getErr).To(HaveOccurred())
			})
		})

		When("the order does not exist", func() {
			BeforeEach(func() {
				orderID = "nonexistent"
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Describe("SaveClaim", func() {
		var (
			claim *Claim
			err   error
		)

		BeforeEach(func() {
			claim = &Claim{
				ID:          "claim-1",
				OrderID:     "order-1",
				ClaimedBy:   "alice",
				ItemIndexes: []int{0, 2},
				TotalAmount: decimal.RequireFromString("1.96"),
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveClaim(claim)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the claim to the database", func() {
				saved, getErr := db.GetClaim("claim-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ClaimedBy).To(Equal("alice"))
				Expect(saved.ItemIndexes).To(Equal([]int{0, 2}))
				Expect(saved.TotalAmount.Equal(decimal.RequireFromString("1.96"))).To(BeTrue())
			})
		})
	})

	Describe("GetClaim", func() {
		When("the claim does not exist", func() {
			It("returns ErrNotFound", func() {
				_, err := db.GetClaim("nonexistent")
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("ListClaims", func() {
		When("claims exist", func() {
			BeforeEach(func() {
				Expect(db.SaveClaim(&Claim{ID: "c1", OrderID: "o1", ClaimedBy: "alice"})).NotTo(HaveOccurred())
				Expect(db.SaveClaim(&Claim{ID: "c2", OrderID: "o1", ClaimedBy: "bob"})).NotTo(HaveOccurred())
			})

			It("should return all claims", func() {
				claims, err := db.ListClaims()
				Expect(err).NotTo(HaveOccurred())
				Expect(claims).To(HaveLen(2))
			})
		})

		When("no claims exist", func() {
			It("should return an empty list", func() {
				claims, err := db.ListClaims()
				Expect(err).NotTo(HaveOccurred())
				Expect(claims).To(BeEmpty())
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			Expect(db.Close()).To(Succeed())
		})
	})
})
