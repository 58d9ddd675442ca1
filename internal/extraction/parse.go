package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// thousandsRe matches numbers written with dot or comma thousand separators,
// e.g. "36.000" or "1,250,000".
var thousandsRe = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)

// amount is a float64 that also accepts JSON strings with currency noise and
// thousand separators ("Rp36.000" -> 36000), per the receipt normalization
// rule. Missing and null values decode to zero.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = 0
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := parseAmountString(str)
		if err != nil {
			return err
		}
		*a = amount(v)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = amount(f)
	return nil
}

func parseAmountString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(s), "RP"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, nil
	}
	if thousandsRe.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return v, nil
}

// rawReceipt is the wire schema produced by the LLM. Field names vary across
// prompt versions ("discount" vs "discountValue"), so both are accepted and
// folded into one canonical value.
type rawReceipt struct {
	Items []struct {
		Name  string `json:"name"`
		Price amount `json:"price"`
	} `json:"items"`
	Tax               amount  `json:"tax"`
	ServiceCharge     amount  `json:"serviceCharge"`
	AdditionalCharges amount  `json:"additionalCharges"`
	ShippingCost      amount  `json:"shippingCost"`
	Discount          *amount `json:"discount"`
	DiscountValue     *amount `json:"discountValue"`
}

// extractJSON strips markdown fencing and any chatter around the first JSON
// object in an LLM response.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("invalid JSON object in response")
	}
	return text[start : end+1], nil
}

// parseReceiptJSON parses an LLM receipt response into the canonical schema.
func parseReceiptJSON(text string) (*ReceiptData, error) {
	jsonText, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var raw rawReceipt
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling receipt json: %w", err)
	}

	data := &ReceiptData{
		TaxPercent:           float64(raw.Tax),
		ServiceChargePercent: float64(raw.ServiceCharge),
		AdditionalCharges:    float64(raw.AdditionalCharges),
		ShippingCost:         float64(raw.ShippingCost),
	}
	if raw.Discount != nil {
		data.Discount = float64(*raw.Discount)
	} else if raw.DiscountValue != nil {
		data.Discount = float64(*raw.DiscountValue)
	}

	for _, item := range raw.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.Price <= 0 {
			continue
		}
		data.Items = append(data.Items, ReceiptItem{Name: name, Price: float64(item.Price)})
	}

	if len(data.Items) == 0 {
		return nil, fmt.Errorf("no items found in receipt")
	}
	return data, nil
}

// parseAssignmentsJSON parses an LLM assignment response. People missing
// from the people list but named in assignments are added to it.
func parseAssignmentsJSON(text string) (*AssignmentData, error) {
	jsonText, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var data AssignmentData
	if err := json.Unmarshal([]byte(jsonText), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling assignments json: %w", err)
	}

	seen := make(map[string]bool)
	var people []string
	addPerson := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		people = append(people, name)
	}
	for _, p := range data.People {
		addPerson(p)
	}

	assignments := data.Assignments[:0]
	for _, a := range data.Assignments {
		a.Person = strings.TrimSpace(a.Person)
		if a.Person == "" || len(a.Items) == 0 {
			continue
		}
		addPerson(a.Person)
		var items []string
		for _, item := range a.Items {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		a.Items = items
		assignments = append(assignments, a)
	}

	if len(people) == 0 {
		return nil, fmt.Errorf("no people found in text")
	}
	data.People = people
	data.Assignments = assignments
	return &data, nil
}
