package api

import (
	"net/http"

	"libris/internal/model"
	"libris/internal/store"
)

// LoansHandler handles borrow, return, and history endpoints. The user
// identity always comes from the verified token, never from the body.
type LoansHandler struct {
	Ledger *store.Ledger
}

type borrowRequest struct {
	BookID int64 `json:"book_id"`
}

// Borrow handles POST /api/loans.
func (h *LoansHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req borrowRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID <= 0 {
		jsonError(w, http.StatusBadRequest, "book_id required")
		return
	}

	loan, err := h.Ledger.Borrow(r.Context(), claims.UserID, req.BookID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, loan)
}

// Return handles POST /api/loans/{id}/return.
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	loanID := r.PathValue("id")
	if loanID == "" {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	loan, err := h.Ledger.Return(r.Context(), loanID, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, loan)
}

// History handles GET /api/loans.
func (h *LoansHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	loans, err := h.Ledger.History(r.Context(), claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	jsonResponse(w, http.StatusOK, loans)
}
