package bill

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeTotals", func() {
	var (
		items  []Item
		people []string
		config AdjustmentConfig
		totals Totals
	)

	BeforeEach(func() {
		items = nil
		people = nil
		config = AdjustmentConfig{
			TaxServiceOrder: OrderCombined,
			DiscountType:    DiscountFixed,
		}
	})

	JustBeforeEach(func() {
		totals = ComputeTotals(items, people, config)
	})

	When("one item has a single consumer and no adjustments", func() {
		BeforeEach(func() {
			items = []Item{{ID: "i1", Name: "Nasi Goreng", Price: 36000, Consumers: []string{"Edo"}}}
			people = []string{"Edo"}
		})

		It("should charge the full price to that person", func() {
			Expect(totals.Subtotal).To(Equal(36000.0))
			Expect(totals.GrandTotal).To(Equal(36000.0))
			Expect(totals.PerPerson["Edo"].FinalTotal).To(Equal(36000.0))
		})
	})

	When("an item is shared by several people", func() {
		BeforeEach(func() {
			items = []Item{{ID: "i1", Name: "Pizza", Price: 90000, Consumers: []string{"A", "B", "C"}}}
			people = []string{"A", "B", "C"}
		})

		It("should give each consumer an equal share", func() {
			for _, p := range people {
				Expect(totals.PerPerson[p].ItemSubtotal).To(Equal(30000.0))
			}
		})

		It("should keep the full price in the subtotal", func() {
			Expect(totals.Subtotal).To(Equal(90000.0))
		})
	})

	When("an item has an empty consumer set", func() {
		BeforeEach(func() {
			people = []string{"A", "B"}
			items = []Item{{ID: "i1", Name: "Shared", Price: 10000, Consumers: nil}}
		})

		It("should split it across all current people", func() {
			Expect(totals.PerPerson["A"].ItemSubtotal).To(Equal(5000.0))
			Expect(totals.PerPerson["B"].ItemSubtotal).To(Equal(5000.0))
		})

		It("should behave identically to listing everyone explicitly", func() {
			explicit := ComputeTotals(
				[]Item{{ID: "i1", Name: "Shared", Price: 10000, Consumers: []string{"A", "B"}}},
				people, config,
			)
			Expect(totals).To(Equal(explicit))
		})
	})

	When("a fixed discount is applied before tax and service", func() {
		BeforeEach(func() {
			items = []Item{{ID: "i1", Name: "Ala Carte Ayam", Price: 52400, Consumers: []string{"A", "B"}}}
			people = []string{"A", "B"}
			config.DiscountType = DiscountFixed
			config.DiscountValue = 28200
			config.ApplyDiscountBeforeTaxService = true
		})

		It("should distribute the discount proportionally", func() {
			Expect(totals.PerPerson["A"].DiscountShare).To(Equal(14100.0))
			Expect(totals.PerPerson["B"].DiscountShare).To(Equal(14100.0))
		})

		It("should compute the reduced per-person totals", func() {
			Expect(totals.PerPerson["A"].FinalTotal).To(Equal(12100.0))
			Expect(totals.PerPerson["B"].FinalTotal).To(Equal(12100.0))
		})

		It("should reconcile the grand total", func() {
			Expect(totals.GrandTotal).To(Equal(24200.0))
			Expect(totals.DiscountAmount).To(Equal(28200.0))
		})
	})

	When("a percentage discount is capped", func() {
		BeforeEach(func() {
			items = []Item{{ID: "i1", Name: "Feast", Price: 100000, Consumers: []string{"A"}}}
			people = []string{"A"}
			config.DiscountType = DiscountPercentage
			config.DiscountValue = 50
			config.MaxDiscount = 26200
			config.ApplyDiscountBeforeTaxService = false
		})

		It("should cap the raw discount at the maximum", func() {
			Expect(totals.DiscountAmount).To(Equal(26200.0))
		})

		It("should subtract the capped discount from the grand total", func() {
			Expect(totals.GrandTotal).To(Equal(73800.0))
		})
	})

	When("a percentage discount is computed after tax and service", func() {
		BeforeEach(func() {
			items = []Item{{ID: "i1", Name: "Feast", Price: 100000, Consumers: []string{"A"}}}
			people = []string{"A"}
			config.TaxPercent = 10
			config.ServiceChargePercent = 5
			config.DiscountType = DiscountPercentage
			config.DiscountValue = 50
			config.ApplyDiscountBeforeTaxService = false
		})

		It("should include provisional tax and service in the discount base", func() {
			// base = 100000 + 10000 tax + 5000 service = 115000
			Expect(totals.DiscountAmount).To(Equal(57500.0))
		})

		When("a cap is set", func() {
			BeforeEach(func() {
				config.MaxDiscount = 30000
			})

			It("should apply the cap to the inflated raw discount", func() {
				Expect(totals.DiscountAmount).To(Equal(30000.0))
			})

			It("should compute tax and service on the undiscounted base", func() {
				Expect(totals.PerPerson["A"].TaxShare).To(Equal(10000.0))
				Expect(totals.PerPerson["A"].ServiceChargeShare).To(Equal(5000.0))
				Expect(totals.PerPerson["A"].FinalTotal).To(Equal(85000.0))
			})
		})
	})

	Describe("tax and service charge ordering", func() {
		BeforeEach(func() {
			items = []Item{{ID: "i1", Name: "Base", Price: 100, Consumers: []string{"A"}}}
			people = []string{"A"}
			config.TaxPercent = 10
			config.ServiceChargePercent = 10
		})

		When("order is combined", func() {
			BeforeEach(func() {
				config.TaxServiceOrder = OrderCombined
			})

			It("should compute both independently from the base", func() {
				Expect(totals.PerPerson["A"].TaxShare).To(Equal(10.0))
				Expect(totals.PerPerson["A"].ServiceChargeShare).To(Equal(10.0))
				Expect(totals.GrandTotal).To(Equal(120.0))
			})
		})

		When("order is service_first", func() {
			BeforeEach(func() {
				config.TaxServiceOrder = OrderServiceFirst
			})

			It("should compound tax on top of the service charge", func() {
				Expect(totals.PerPerson["A"].ServiceChargeShare).To(Equal(10.0))
				Expect(totals.PerPerson["A"].TaxShare).To(BeNumerically("~", 11.0, 1e-9))
				Expect(totals.GrandTotal).To(BeNumerically("~", 121.0, 1e-9))
			})
		})

		When("order is tax_first", func() {
			BeforeEach(func() {
				config.TaxServiceOrder = OrderTaxFirst
			})

			It("should compound the service charge on top of tax", func() {
				Expect(totals.PerPerson["A"].TaxShare).To(Equal(10.0))
				Expect(totals.PerPerson["A"].ServiceChargeShare).To(BeNumerically("~", 11.0, 1e-9))
				Expect(totals.GrandTotal).To(BeNumerically("~", 121.0, 1e-9))
			})
		})
	})

	When("flat costs are split per head", func() {
		BeforeEach(func() {
			people = []string{"A", "B", "C"}
			config.AdditionalCharges = 3500
			config.ShippingCost = 2000
		})

		It("should charge every person an identical share", func() {
			for _, p := range people {
				Expect(totals.PerPerson[p].OtherCostsShare).To(BeNumerically("~", 1833.3333, 1e-3))
			}
		})

		It("should reconcile the shares to the flat total", func() {
			var sum float64
			for _, p := range people {
				sum += totals.PerPerson[p].OtherCostsShare
			}
			Expect(sum).To(BeNumerically("~", 5500.0, 0.01))
		})
	})

	When("the people list is empty", func() {
		BeforeEach(func() {
			items = []Item{
				{ID: "i1", Name: "One", Price: 1000},
				{ID: "i2", Name: "Two", Price: 2000},
			}
			config.TaxPercent = 10
			config.ShippingCost = 500
		})

		It("should not panic and should return an empty per-person map", func() {
			Expect(totals.PerPerson).To(BeEmpty())
		})

		It("should still compute aggregate totals from the configuration", func() {
			Expect(totals.Subtotal).To(Equal(3000.0))
			Expect(totals.TaxAmount).To(Equal(300.0))
			Expect(totals.GrandTotal).To(Equal(3800.0))
		})
	})

	When("the subtotal is zero and a percentage discount is set", func() {
		BeforeEach(func() {
			people = []string{"A"}
			config.DiscountType = DiscountPercentage
			config.DiscountValue = 50
		})

		It("should yield zero contributions instead of NaN", func() {
			Expect(totals.DiscountAmount).To(Equal(0.0))
			Expect(math.IsNaN(totals.PerPerson["A"].FinalTotal)).To(BeFalse())
			Expect(totals.GrandTotal).To(Equal(0.0))
		})
	})

	When("a discount exceeds a person's share", func() {
		BeforeEach(func() {
			items = []Item{
				{ID: "i1", Name: "Small", Price: 1000, Consumers: []string{"A"}},
				{ID: "i2", Name: "Large", Price: 9000, Consumers: []string{"B"}},
			}
			people = []string{"A", "B"}
			config.DiscountType = DiscountFixed
			config.DiscountValue = 20000
		})

		It("should allow the final total to go negative", func() {
			Expect(totals.PerPerson["A"].FinalTotal).To(BeNumerically("<", 0))
		})

		It("should still reconcile to the grand total", func() {
			sum := totals.PerPerson["A"].FinalTotal + totals.PerPerson["B"].FinalTotal
			Expect(sum).To(BeNumerically("~", totals.GrandTotal, 0.01))
		})
	})

	When("numeric inputs are negative", func() {
		BeforeEach(func() {
			items = []Item{
				{ID: "i1", Name: "Good", Price: 5000, Consumers: []string{"A"}},
				{ID: "i2", Name: "Bad", Price: -100, Consumers: []string{"A"}},
			}
			people = []string{"A"}
			config.TaxPercent = -5
			config.ShippingCost = -200
		})

		It("should treat them as zero contributions", func() {
			Expect(totals.Subtotal).To(Equal(5000.0))
			Expect(totals.TaxAmount).To(Equal(0.0))
			Expect(totals.GrandTotal).To(Equal(5000.0))
		})
	})

	When("the inputs are an uneven mix of shared and exclusive items", func() {
		BeforeEach(func() {
			items = []Item{
				{ID: "i1", Name: "Mie Goyang LVL 1", Price: 17000, Consumers: []string{"Edo", "Winda"}},
				{ID: "i2", Name: "Udang Keju", Price: 12500, Consumers: []string{"Firman", "Fadel", "Dwi"}},
				{ID: "i3", Name: "Lemon Splash Jumbo", Price: 9000, Consumers: []string{"Winda"}},
				{ID: "i4", Name: "Es DJ", Price: 8000},
			}
			people = []string{"Edo", "Firman", "Fadel", "Dwi", "Winda"}
			config.TaxPercent = 11
			config.ServiceChargePercent = 6
			config.TaxServiceOrder = OrderServiceFirst
			config.DiscountType = DiscountPercentage
			config.DiscountValue = 15
			config.MaxDiscount = 10000
			config.AdditionalCharges = 3000
			config.ShippingCost = 8000
		})

		It("should conserve: per-person totals sum to the grand total", func() {
			var sum float64
			for _, t := range totals.PerPerson {
				sum += t.FinalTotal
			}
			Expect(sum).To(BeNumerically("~", totals.GrandTotal, 0.01))
		})

		It("should reconcile per-person tax and service to the aggregates", func() {
			var tax, service float64
			for _, t := range totals.PerPerson {
				tax += t.TaxShare
				service += t.ServiceChargeShare
			}
			Expect(tax).To(BeNumerically("~", totals.TaxAmount, 1e-9))
			Expect(service).To(BeNumerically("~", totals.ServiceChargeAmount, 1e-9))
		})

		It("should be deterministic across invocations", func() {
			again := ComputeTotals(items, people, config)
			Expect(again).To(Equal(totals))
		})
	})
})
