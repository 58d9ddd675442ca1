package bill

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// handleCreateBill creates an empty bill
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			corsError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	bill, err := s.service.CreateBill(req.Title)
	if err != nil {
		slog.Error("Error creating bill", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, bill)
}

// handleListBills returns all bills
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills()
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if bills == nil {
		bills = []*Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// handleGetBill returns a single bill
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.service.GetBill(r.PathValue("id"))
	if err != nil {
		corsError(w, "Bill not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// handleDeleteBill deletes a bill
func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteBill(r.PathValue("id")); err != nil {
		corsError(w, "Error deleting bill", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddPerson adds a participant to a bill
func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := s.service.AddPerson(r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

// handleRemovePerson removes a participant from a bill
func (s *Server) handleRemovePerson(w http.ResponseWriter, r *http.Request) {
	bill, err := s.service.RemovePerson(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// handleAddItem adds an item to a bill
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := s.service.AddItem(r.PathValue("id"), req.Name, req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

// handleUpdateItem updates an item's name and/or price
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  *string  `json:"name"`
		Price *float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := s.service.UpdateItem(r.PathValue("id"), r.PathValue("itemID"), req.Name, req.Price)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// handleRemoveItem deletes an item from a bill
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	bill, err := s.service.RemoveItem(r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// handleToggleConsumer toggles a person on an item's consumer set
func (s *Server) handleToggleConsumer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Person string `json:"person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := s.service.ToggleConsumer(r.PathValue("id"), r.PathValue("itemID"), req.Person)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// handleSetAdjustments replaces the bill's adjustment configuration
func (s *Server) handleSetAdjustments(w http.ResponseWriter, r *http.Request) {
	var config AdjustmentConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := s.service.SetAdjustments(r.PathValue("id"), config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// handleUploadReceipt handles receipt image upload and extraction
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// 50MB to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		writeError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB. Please compress or resize your image.")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	bill, itemCount, err := s.service.ImportReceipt(r.PathValue("id"), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error importing receipt", "filename", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bill":        bill,
		"items_added": itemCount,
	})
}

// handleGetReceiptFile returns the stored receipt image for a bill
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleImportAssignments parses free text into people and item assignments
func (s *Server) handleImportAssignments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, report, err := s.service.ImportAssignments(r.PathValue("id"), req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bill":   bill,
		"report": report,
	})
}

// personTotalResponse is a PersonTotal with currency-aware amounts.
type personTotalResponse struct {
	ItemSubtotal       Amount `json:"item_subtotal"`
	TaxShare           Amount `json:"tax_share"`
	ServiceChargeShare Amount `json:"service_charge_share"`
	DiscountShare      Amount `json:"discount_share"`
	OtherCostsShare    Amount `json:"other_costs_share"`
	FinalTotal         Amount `json:"final_total"`
}

type summaryResponse struct {
	BillID              string                         `json:"bill_id"`
	Title               string                         `json:"title"`
	Currency            string                         `json:"currency"`
	Subtotal            Amount                         `json:"subtotal"`
	DiscountAmount      Amount                         `json:"discount_amount"`
	TaxAmount           Amount                         `json:"tax_amount"`
	ServiceChargeAmount Amount                         `json:"service_charge_amount"`
	OtherCosts          Amount                         `json:"other_costs"`
	GrandTotal          Amount                         `json:"grand_total"`
	PerPerson           map[string]personTotalResponse `json:"per_person"`
}

// handleSummary computes and returns the bill's allocation breakdown
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	bill, totals, err := s.service.Summary(r.PathValue("id"))
	if err != nil {
		corsError(w, "Bill not found", http.StatusNotFound)
		return
	}

	currency := DefaultCurrency
	resp := summaryResponse{
		BillID:              bill.ID,
		Title:               bill.Title,
		Currency:            currency,
		Subtotal:            NewAmount(totals.Subtotal, currency),
		DiscountAmount:      NewAmount(totals.DiscountAmount, currency),
		TaxAmount:           NewAmount(totals.TaxAmount, currency),
		ServiceChargeAmount: NewAmount(totals.ServiceChargeAmount, currency),
		OtherCosts:          NewAmount(totals.OtherCosts, currency),
		GrandTotal:          NewAmount(totals.GrandTotal, currency),
		PerPerson:           make(map[string]personTotalResponse, len(totals.PerPerson)),
	}
	for person, t := range totals.PerPerson {
		resp.PerPerson[person] = personTotalResponse{
			ItemSubtotal:       NewAmount(t.ItemSubtotal, currency),
			TaxShare:           NewAmount(t.TaxShare, currency),
			ServiceChargeShare: NewAmount(t.ServiceChargeShare, currency),
			DiscountShare:      NewAmount(t.DiscountShare, currency),
			OtherCostsShare:    NewAmount(t.OtherCostsShare, currency),
			FinalTotal:         NewAmount(t.FinalTotal, currency),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// contentTypeFromExt guesses a MIME type from the filename extension.
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
