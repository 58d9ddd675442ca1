package extraction

// ReceiptItem is a single line item read off a receipt image.
type ReceiptItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ReceiptData is the canonical receipt extraction result. Optional receipt
// fields that were absent are zero; the caller treats zero as "not present".
type ReceiptData struct {
	Items                []ReceiptItem `json:"items"`
	TaxPercent           float64       `json:"tax_percent"`
	ServiceChargePercent float64       `json:"service_charge_percent"`
	AdditionalCharges    float64       `json:"additional_charges"`
	ShippingCost         float64       `json:"shipping_cost"`
	Discount             float64       `json:"discount"`
}

// PersonAssignment maps one person to the item names they ordered.
type PersonAssignment struct {
	Person string   `json:"person"`
	Items  []string `json:"items"`
}

// AssignmentData is the canonical text assignment extraction result.
type AssignmentData struct {
	People      []string           `json:"people"`
	Assignments []PersonAssignment `json:"assignments"`
}

// Extractor defines the interface for LLM-backed extraction operations.
type Extractor interface {
	// ExtractReceipt analyzes a receipt image/PDF and extracts line items
	// and any adjustment fields printed on it.
	ExtractReceipt(imageData []byte, contentType string) (*ReceiptData, error)
	// ExtractAssignments parses free text listing who ordered what.
	ExtractAssignments(text string) (*AssignmentData, error)
	// Close closes the extractor and releases resources.
	Close() error
}

// receiptPrompt is the shared prompt used by all LLM providers for reading
// receipts. The rules mirror Indonesian delivery-platform receipts
// (GoFood/GrabFood/ShopeeFood): dot thousand separators, tax-inclusive
// totals, summed discounts.
const receiptPrompt = `You are an expert receipt analyzer. Extract structured data from the receipt image and return ONLY valid JSON in this exact format:
{
  "items": [{"name": "string", "price": 36000}],
  "tax": 11,
  "serviceCharge": 5,
  "additionalCharges": 2000,
  "shippingCost": 19500,
  "discount": 20000
}

Rules:
1. Items: extract each line item with its total price for that line. If a quantity is shown (e.g. "2 x Nasi"), the printed price is already the line total; do not multiply. Ignore crossed-out prices. Do not treat "Harga", "Subtotal" or "Total" lines as items.
2. Prices use dots as thousand separators ('36.000' means 36000). Remove all separator dots and commas before converting to a number.
3. Tax: if the receipt says tax is included ("Termasuk Pajak", "Sudah termasuk pajak"), omit the tax field entirely. Only extract tax explicitly listed as "Pajak", "PPN" or "PB1". If tax is a fixed amount, convert it to a percentage of the item subtotal.
4. serviceCharge: a percentage, only when listed as a percentage service charge.
5. additionalCharges: sum of flat fees such as "Biaya lainnya", "Biaya pemesanan", "Biaya kemasan", "Biaya Layanan", "Service Charge" (fixed amounts).
6. shippingCost: delivery fees such as "Ongkir", "Delivery Fee", "Biaya Pengiriman", "Biaya Penanganan dan Pengiriman".
7. discount: sum the absolute values of ALL lines containing "Diskon" or "Voucher". "-20.000" contributes 20000.
8. Omit optional fields that are absent or zero. Do not use markdown code blocks.`

// assignmentPrompt is the shared prompt for parsing who-ordered-what text.
const assignmentPrompt = `You are an expert at parsing text that lists people and the food or drink items they ordered. Return ONLY valid JSON in this exact format:
{
  "people": ["Edo", "Dwi"],
  "assignments": [
    {"person": "Edo", "items": ["Mie Goyang LVL1", "Ice DJ"]},
    {"person": "Dwi", "items": ["ricebowl black pepper", "es DJ"]}
  ]
}

Rules:
1. The person's name is usually at the start of a line, often followed by a colon or a number. Extract only the name.
2. Items follow the name, separated by commas.
3. Split compound items joined by a plus sign into separate items: "ricebowl black pepper + es DJ" is two items.
4. Keep parenthetical notes out of item names: "Mie Goyang LVL 1 (Cabe 5)" is "Mie Goyang LVL 1".
5. Trim whitespace. The people list must contain unique names only.
6. Do not use markdown code blocks.

Parse the following text:
`
