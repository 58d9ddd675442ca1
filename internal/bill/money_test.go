package bill

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Amount", func() {
	It("should round to the currency's decimal places", func() {
		Expect(RoundAmount(12.950000762939453, "USD")).To(Equal(12.95))
		Expect(RoundAmount(21.95, "USD")).To(Equal(21.95))
		Expect(RoundAmount(21.954, "USD")).To(Equal(21.95))
		Expect(RoundAmount(21.956, "USD")).To(Equal(21.96))
	})

	It("should not zero the minor units of fractional amounts", func() {
		Expect(RoundAmount(0.99, "USD")).To(Equal(0.99))
	})

	It("should round to whole units for zero-decimal currencies", func() {
		Expect(RoundAmount(1234.6, "JPY")).To(Equal(1235.0))
	})

	It("should fall back to rupiah for empty or unknown currencies", func() {
		Expect(RoundAmount(36000.4, "")).To(Equal(RoundAmount(36000.4, DefaultCurrency)))
		Expect(RoundAmount(36000.4, "???")).To(Equal(RoundAmount(36000.4, DefaultCurrency)))
	})

	It("should marshal with fixed decimal places", func() {
		b, err := json.Marshal(NewAmount(22.0, "USD"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal("22.00"))
	})

	It("should marshal rupiah amounts cleanly", func() {
		b, err := json.Marshal(NewAmount(36000, "IDR"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(ContainSubstring("36000"))
	})
})
