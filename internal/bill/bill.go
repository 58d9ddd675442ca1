package bill

import "time"

// DiscountType selects how the discount value is interpreted.
type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// TaxServiceOrder selects how tax and service charge compound.
type TaxServiceOrder string

const (
	// OrderCombined computes tax and service independently from the same base.
	OrderCombined TaxServiceOrder = "combined"
	// OrderServiceFirst computes service first, then tax on base+service.
	OrderServiceFirst TaxServiceOrder = "service_first"
	// OrderTaxFirst computes tax first, then service on base+tax.
	OrderTaxFirst TaxServiceOrder = "tax_first"
)

// AdjustmentConfig holds the bill-wide adjustments applied on top of the
// item subtotal: tax, service charge, discount, and flat extra costs.
type AdjustmentConfig struct {
	TaxPercent           float64         `json:"tax_percent"`
	ServiceChargePercent float64         `json:"service_charge_percent"`
	TaxServiceOrder      TaxServiceOrder `json:"tax_service_order"`

	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	// MaxDiscount caps a percentage discount. Zero means uncapped.
	// Ignored for fixed discounts.
	MaxDiscount float64 `json:"max_discount"`
	// ApplyDiscountBeforeTaxService subtracts each person's discount share
	// from their base before tax and service are computed on it.
	ApplyDiscountBeforeTaxService bool `json:"apply_discount_before_tax_service"`

	// AdditionalCharges and ShippingCost are split equally per head.
	AdditionalCharges float64 `json:"additional_charges"`
	ShippingCost      float64 `json:"shipping_cost"`
}

// Item is a priced line entry on a bill. An empty Consumers list means the
// item is split across all current participants.
type Item struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Consumers []string `json:"consumers"`
}

// Bill holds a snapshot of items, participants and adjustments.
type Bill struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	People []string         `json:"people"`
	Items  []Item           `json:"items"`
	Config AdjustmentConfig `json:"config"`
	// ReceiptFilename and ReceiptContentType reference the stored receipt
	// image this bill was populated from, if any.
	ReceiptFilename    string    `json:"receipt_filename,omitempty"`
	ReceiptContentType string    `json:"receipt_content_type,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PersonTotal is one participant's share of every component of the bill.
type PersonTotal struct {
	ItemSubtotal       float64 `json:"item_subtotal"`
	TaxShare           float64 `json:"tax_share"`
	ServiceChargeShare float64 `json:"service_charge_share"`
	DiscountShare      float64 `json:"discount_share"`
	OtherCostsShare    float64 `json:"other_costs_share"`
	FinalTotal         float64 `json:"final_total"`
}

// Totals is the full breakdown produced by ComputeTotals. The per-person
// final totals sum to GrandTotal when there is at least one participant.
type Totals struct {
	Subtotal            float64                `json:"subtotal"`
	DiscountAmount      float64                `json:"discount_amount"`
	TaxAmount           float64                `json:"tax_amount"`
	ServiceChargeAmount float64                `json:"service_charge_amount"`
	OtherCosts          float64                `json:"other_costs"`
	GrandTotal          float64                `json:"grand_total"`
	PerPerson           map[string]PersonTotal `json:"per_person"`
}
