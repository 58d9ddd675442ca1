package bill

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/faaadelmr/bayarGess/internal/extraction"
)

// IDGenerator generates unique IDs for bills and items.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill operations: participants, items, extractor imports
// and summaries.
type Service struct {
	db          DB
	extractor   extraction.Extractor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
func NewService(db DB, extractor extraction.Extractor, storage Storage) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, extractor extraction.Extractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// CreateBill creates an empty bill.
func (s *Service) CreateBill(title string) (*Bill, error) {
	now := s.timeSource.Now()
	bill := &Bill{
		ID:     s.idGenerator.Generate(),
		Title:  strings.TrimSpace(title),
		People: []string{},
		Items:  []Item{},
		Config: AdjustmentConfig{
			TaxServiceOrder: OrderCombined,
			DiscountType:    DiscountFixed,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if bill.Title == "" {
		bill.Title = "Split " + now.Format("2006-01-02")
	}

	if err := s.db.SaveBill(bill); err != nil {
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	return bill, nil
}

// GetBill retrieves a bill by ID.
func (s *Service) GetBill(id string) (*Bill, error) {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return bill, nil
}

// ListBills returns all bills.
func (s *Service) ListBills() ([]*Bill, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return bills, nil
}

// DeleteBill removes a bill and its stored receipt image.
func (s *Service) DeleteBill(id string) error {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return fmt.Errorf("getting bill for deletion: %w", err)
	}

	if bill.ReceiptFilename != "" {
		if err := s.storage.Delete(bill.ReceiptFilename); err != nil {
			slog.Warn("Failed to delete receipt file", "filename", bill.ReceiptFilename, "error", err)
		}
	}

	if err := s.db.DeleteBill(id); err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	return nil
}

// AddPerson adds a participant. Names must be non-empty and unique within
// the bill (case-sensitive exact match).
func (s *Service) AddPerson(billID, name string) (*Bill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("person name must not be empty")
	}

	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	if containsString(bill.People, name) {
		return nil, fmt.Errorf("person %q already exists", name)
	}
	bill.People = append(bill.People, name)

	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// RemovePerson removes a participant and strips them from every item's
// consumer set.
func (s *Service) RemovePerson(billID, name string) (*Bill, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	if !containsString(bill.People, name) {
		return nil, fmt.Errorf("person %q not found", name)
	}

	bill.People = removeString(bill.People, name)
	for i := range bill.Items {
		bill.Items[i].Consumers = removeString(bill.Items[i].Consumers, name)
	}

	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// AddItem appends a new item with no consumers (split across everyone).
func (s *Service) AddItem(billID, name string, price float64) (*Bill, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	bill.Items = append(bill.Items, Item{
		ID:        s.idGenerator.Generate(),
		Name:      strings.TrimSpace(name),
		Price:     price,
		Consumers: []string{},
	})

	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// UpdateItem updates an item's name and/or price. Nil fields are unchanged.
func (s *Service) UpdateItem(billID, itemID string, name *string, price *float64) (*Bill, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	item := findItem(bill, itemID)
	if item == nil {
		return nil, fmt.Errorf("item not found: %s", itemID)
	}
	if name != nil {
		item.Name = strings.TrimSpace(*name)
	}
	if price != nil {
		item.Price = *price
	}

	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// RemoveItem deletes an item from the bill.
func (s *Service) RemoveItem(billID, itemID string) (*Bill, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	found := false
	items := bill.Items[:0]
	for _, item := range bill.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return nil, fmt.Errorf("item not found: %s", itemID)
	}
	bill.Items = items

	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ToggleConsumer adds the person to the item's consumer set, or removes
// them if already present.
func (s *Service) ToggleConsumer(billID, itemID, person string) (*Bill, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	if !containsString(bill.People, person) {
		return nil, fmt.Errorf("person %q not found", person)
	}
	item := findItem(bill, itemID)
	if item == nil {
		return nil, fmt.Errorf("item not found: %s", itemID)
	}

	if containsString(item.Consumers, person) {
		item.Consumers = removeString(item.Consumers, person)
	} else {
		item.Consumers = append(item.Consumers, person)
	}

	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// SetAdjustments replaces the bill's adjustment configuration.
func (s *Service) SetAdjustments(billID string, config AdjustmentConfig) (*Bill, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	switch config.TaxServiceOrder {
	case OrderCombined, OrderServiceFirst, OrderTaxFirst:
	case "":
		config.TaxServiceOrder = OrderCombined
	default:
		return nil, fmt.Errorf("invalid tax service order: %s", config.TaxServiceOrder)
	}
	switch config.DiscountType {
	case DiscountFixed, DiscountPercentage:
	case "":
		config.DiscountType = DiscountFixed
	default:
		return nil, fmt.Errorf("invalid discount type: %s", config.DiscountType)
	}

	bill.Config = config
	if err := s.saveBill(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ImportReceipt stores the uploaded image, runs the receipt extractor, and
// folds the result into the bill: extracted items are appended with empty
// consumer sets, and any detected adjustments overwrite the matching config
// fields.
func (s *Service) ImportReceipt(billID, filename string, data []byte, contentType string) (*Bill, int, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, 0, fmt.Errorf("getting bill: %w", err)
	}

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", bill.ID, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, 0, fmt.Errorf("saving receipt file: %w", err)
	}

	extracted, err := s.extractor.ExtractReceipt(data, contentType)
	if err != nil {
		slog.Error("Failed to extract receipt",
			"bill_id", billID,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		if derr := s.storage.Delete(savedPath); derr != nil {
			slog.Warn("Failed to delete receipt file", "filename", savedPath, "error", derr)
		}
		return nil, 0, fmt.Errorf("extracting receipt: %w", err)
	}

	for _, item := range extracted.Items {
		bill.Items = append(bill.Items, Item{
			ID:        s.idGenerator.Generate(),
			Name:      item.Name,
			Price:     item.Price,
			Consumers: []string{},
		})
	}

	if extracted.TaxPercent > 0 {
		bill.Config.TaxPercent = extracted.TaxPercent
	}
	if extracted.ServiceChargePercent > 0 {
		bill.Config.ServiceChargePercent = extracted.ServiceChargePercent
	}
	if extracted.AdditionalCharges > 0 {
		bill.Config.AdditionalCharges = extracted.AdditionalCharges
	}
	if extracted.ShippingCost > 0 {
		bill.Config.ShippingCost = extracted.ShippingCost
	}
	if extracted.Discount > 0 {
		bill.Config.DiscountType = DiscountFixed
		bill.Config.DiscountValue = extracted.Discount
	}

	// Replace any previously stored receipt image.
	if bill.ReceiptFilename != "" && bill.ReceiptFilename != savedPath {
		if err := s.storage.Delete(bill.ReceiptFilename); err != nil {
			slog.Warn("Failed to delete previous receipt file", "filename", bill.ReceiptFilename, "error", err)
		}
	}
	bill.ReceiptFilename = savedPath
	bill.ReceiptContentType = contentType

	if err := s.saveBill(bill); err != nil {
		if derr := s.storage.Delete(savedPath); derr != nil {
			slog.Warn("Failed to delete receipt file", "filename", savedPath, "error", derr)
		}
		return nil, 0, err
	}
	return bill, len(extracted.Items), nil
}

// GetReceiptFile retrieves the stored receipt image for a bill.
func (s *Service) GetReceiptFile(billID string) ([]byte, string, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill: %w", err)
	}
	if bill.ReceiptFilename == "" {
		return nil, "", fmt.Errorf("bill has no receipt image")
	}

	data, err := s.storage.Get(bill.ReceiptFilename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}
	return data, bill.ReceiptContentType, nil
}

// AssignmentReport summarizes an ImportAssignments run.
type AssignmentReport struct {
	NewPeople  int `json:"new_people"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
}

// ImportAssignments runs the text assignment extractor, adds any new people
// to the bill, and resolves assignments onto items via the name matcher.
// Unresolvable assignments are reported, not guessed.
func (s *Service) ImportAssignments(billID, text string) (*Bill, *AssignmentReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("assignment text must not be empty")
	}

	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting bill: %w", err)
	}

	extracted, err := s.extractor.ExtractAssignments(text)
	if err != nil {
		slog.Error("Failed to extract assignments", "bill_id", billID, "error", err)
		return nil, nil, fmt.Errorf("extracting assignments: %w", err)
	}

	newPeople := 0
	for _, p := range extracted.People {
		if !containsString(bill.People, p) {
			bill.People = append(bill.People, p)
			newPeople++
		}
	}

	assignments := make([]Assignment, len(extracted.Assignments))
	total := 0
	for i, a := range extracted.Assignments {
		assignments[i] = Assignment{Person: a.Person, Items: a.Items}
		total += len(a.Items)
	}

	items, resolved := ResolveAssignments(assignments, bill.Items, bill.People)
	bill.Items = items

	if err := s.saveBill(bill); err != nil {
		return nil, nil, err
	}

	report := &AssignmentReport{
		NewPeople:  newPeople,
		Resolved:   resolved,
		Unresolved: total - resolved,
	}
	return bill, report, nil
}

// Summary computes the full allocation breakdown for the bill's current
// snapshot.
func (s *Service) Summary(billID string) (*Bill, Totals, error) {
	bill, err := s.db.GetBill(billID)
	if err != nil {
		return nil, Totals{}, fmt.Errorf("getting bill: %w", err)
	}
	return bill, ComputeTotals(bill.Items, bill.People, bill.Config), nil
}

func (s *Service) saveBill(bill *Bill) error {
	bill.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveBill(bill); err != nil {
		return fmt.Errorf("saving bill: %w", err)
	}
	return nil
}

func findItem(bill *Bill, itemID string) *Item {
	for i := range bill.Items {
		if bill.Items[i].ID == itemID {
			return &bill.Items[i]
		}
	}
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

var filenameRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)

// sanitizeFilename cleans up phone-generated filenames before storage.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = filenameRe.ReplaceAllString(base, "")
	base = strings.Join(strings.Fields(base), " ")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}
