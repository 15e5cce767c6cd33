package order

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// corsJSONError writes a JSON error body with CORS headers set
func corsJSONError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleListOrders returns a list of all orders
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.service.ListOrders()
	if err != nil {
		slog.Error("Error listing orders", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadReceipt accepts a receipt PDF, parses it and saves the order
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// Receipts are single-page text PDFs; 10MB is plenty
	maxFormSize := int64(10 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 10MB."
		}
		corsJSONError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a receipt PDF to upload."
		}
		corsJSONError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		corsJSONError(w, "File is too large. Maximum size is 10MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		corsJSONError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	order, err := s.service.ProcessReceipt(header.Filename, data)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		corsJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(order); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetOrder returns a single order
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Order ID required", http.StatusBadRequest)
		return
	}
	order, err := s.service.GetOrder(id)
	if err != nil {
		corsError(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(order); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetOrderItems returns just the item rows of an order
func (s *Server) handleGetOrderItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Order ID required", http.StatusBadRequest)
		return
	}
	order, err := s.service.GetOrder(id)
	if err != nil {
		corsError(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(order.Items); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetOrderFile returns the stored receipt PDF for an order
func (s *Server) handleGetOrderFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Order ID required", http.StatusBadRequest)
		return
	}
	data, err := s.service.GetOrderFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}

// handleDeleteOrder deletes an order
func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Order ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteOrder(id); err != nil {
		corsError(w, "Error deleting order", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListClaims returns a list of all claims
func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.service.ListClaims()
	if err != nil {
		slog.Error("Error listing claims", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if claims == nil {
		claims = []*Claim{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(claims); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleCreateClaim handles claiming item rows on an order
func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID     string `json:"order_id"`
		ClaimedBy   string `json:"claimed_by"`
		ItemIndexes []int  `json:"item_indexes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claim, err := s.service.CreateClaim(req.OrderID, req.ClaimedBy, req.ItemIndexes)
	if err != nil {
		slog.Error("Error creating claim", "error", err)
		corsJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(claim); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetClaim returns a claim with its order
func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Claim ID required", http.StatusBadRequest)
		return
	}
	claim, order, err := s.service.GetClaimWithOrder(id)
	if err != nil {
		corsError(w, "Claim not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"claim": claim,
		"order": order,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
