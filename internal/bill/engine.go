package bill

import "math"

// ComputeTotals computes the full monetary breakdown for a bill snapshot.
// It is a pure function: no state, no side effects, and it never fails.
// Missing or nonsensical numeric inputs (negative, NaN, infinite) contribute
// zero, and any division whose divisor would be zero yields zero instead.
func ComputeTotals(items []Item, people []string, config AdjustmentConfig) Totals {
	taxPct := sanitize(config.TaxPercent)
	servicePct := sanitize(config.ServiceChargePercent)
	otherCosts := sanitize(config.AdditionalCharges) + sanitize(config.ShippingCost)

	var subtotal float64
	for _, item := range items {
		subtotal += sanitize(item.Price)
	}

	discountAmount := computeDiscount(subtotal, taxPct, servicePct, config)

	// Each item's price is split evenly across its consumers; an item with
	// no consumers belongs to everyone.
	personSubtotals := make(map[string]float64, len(people))
	for _, p := range people {
		personSubtotals[p] = 0
	}
	for _, item := range items {
		price := sanitize(item.Price)
		consumers := item.Consumers
		if len(consumers) == 0 {
			consumers = people
		}
		if len(consumers) == 0 {
			continue
		}
		share := price / float64(len(consumers))
		for _, p := range consumers {
			if _, ok := personSubtotals[p]; ok {
				personSubtotals[p] += share
			}
		}
	}

	perPerson := make(map[string]PersonTotal, len(people))
	var taxAmount, serviceAmount, grandTotal float64

	perHeadOtherCosts := 0.0
	if len(people) > 0 {
		perHeadOtherCosts = otherCosts / float64(len(people))
	}

	for _, p := range people {
		itemSubtotal := personSubtotals[p]

		// Discount is distributed in proportion to what each person consumed.
		discountShare := 0.0
		if subtotal > 0 {
			discountShare = discountAmount * (itemSubtotal / subtotal)
		}

		base := itemSubtotal
		if config.ApplyDiscountBeforeTaxService {
			base -= discountShare
		}

		tax, service := applyTaxService(base, taxPct, servicePct, config.TaxServiceOrder)

		final := base + tax + service
		if !config.ApplyDiscountBeforeTaxService {
			final -= discountShare
		}
		final += perHeadOtherCosts

		perPerson[p] = PersonTotal{
			ItemSubtotal:       itemSubtotal,
			TaxShare:           tax,
			ServiceChargeShare: service,
			DiscountShare:      discountShare,
			OtherCostsShare:    perHeadOtherCosts,
			FinalTotal:         final,
		}
		taxAmount += tax
		serviceAmount += service
		grandTotal += final
	}

	if len(people) == 0 {
		// No participants to attribute shares to, but the aggregate view of
		// the bill is still well defined from the subtotal alone.
		base := subtotal
		if config.ApplyDiscountBeforeTaxService {
			base -= discountAmount
		}
		taxAmount, serviceAmount = applyTaxService(base, taxPct, servicePct, config.TaxServiceOrder)
		grandTotal = subtotal - discountAmount + taxAmount + serviceAmount + otherCosts
	}

	return Totals{
		Subtotal:            subtotal,
		DiscountAmount:      discountAmount,
		TaxAmount:           taxAmount,
		ServiceChargeAmount: serviceAmount,
		OtherCosts:          otherCosts,
		GrandTotal:          grandTotal,
		PerPerson:           perPerson,
	}
}

// computeDiscount resolves the aggregate discount amount. A percentage
// discount applied after tax/service uses a base inflated by a provisional
// tax/service computation on the subtotal; the cap applies to the result.
func computeDiscount(subtotal, taxPct, servicePct float64, config AdjustmentConfig) float64 {
	if config.DiscountType != DiscountPercentage {
		return sanitize(config.DiscountValue)
	}

	base := subtotal
	if !config.ApplyDiscountBeforeTaxService {
		tax, service := applyTaxService(base, taxPct, servicePct, config.TaxServiceOrder)
		base += tax + service
	}

	discount := base * sanitize(config.DiscountValue) / 100
	if max := sanitize(config.MaxDiscount); max > 0 {
		discount = math.Min(discount, max)
	}
	return discount
}

// applyTaxService computes the tax and service charge for a base amount
// under the given compounding order.
func applyTaxService(base, taxPct, servicePct float64, order TaxServiceOrder) (tax, service float64) {
	switch order {
	case OrderServiceFirst:
		service = base * servicePct / 100
		tax = (base + service) * taxPct / 100
	case OrderTaxFirst:
		tax = base * taxPct / 100
		service = (base + tax) * servicePct / 100
	default: // combined
		tax = base * taxPct / 100
		service = base * servicePct / 100
	}
	return tax, service
}

// sanitize coerces negative, NaN and infinite inputs to zero so that a
// partially filled bill degrades gracefully instead of erroring.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
