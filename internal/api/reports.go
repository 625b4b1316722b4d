package api

import (
	"net/http"

	"libris/internal/model"
	"libris/internal/store"
)

const popularBooksLimit = 10

// ReportsHandler handles the admin report endpoints.
type ReportsHandler struct {
	Ledger *store.Ledger
}

// Borrowed handles GET /api/reports/borrowed.
func (h *ReportsHandler) Borrowed(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Ledger.OpenLoans(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	jsonResponse(w, http.StatusOK, loans)
}

// Popular handles GET /api/reports/popular.
func (h *ReportsHandler) Popular(w http.ResponseWriter, r *http.Request) {
	books, err := h.Ledger.PopularBooks(r.Context(), popularBooksLimit)
	if err != nil {
		storeError(w, err)
		return
	}
	if books == nil {
		books = []model.PopularBook{}
	}
	jsonResponse(w, http.StatusOK, books)
}
