package api

import (
	"net/http"

	"libris/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(inventory *store.Inventory, ledger *store.Ledger, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	booksHandler := &BooksHandler{Inventory: inventory}
	loansHandler := &LoansHandler{Ledger: ledger}
	reportsHandler := &ReportsHandler{Ledger: ledger}

	authMW := AuthMiddleware(jwtSecret)

	// Catalog: read (any user), write (admin).
	mux.Handle("GET /api/books", authMW(http.HandlerFunc(booksHandler.List)))
	mux.Handle("POST /api/books", authMW(RequireAdmin(http.HandlerFunc(booksHandler.Create))))
	mux.Handle("GET /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Get)))
	mux.Handle("PUT /api/books/{id}", authMW(RequireAdmin(http.HandlerFunc(booksHandler.Update))))
	mux.Handle("DELETE /api/books/{id}", authMW(RequireAdmin(http.HandlerFunc(booksHandler.Delete))))

	// Loans (any user; ownership enforced by the ledger).
	mux.Handle("POST /api/loans", authMW(http.HandlerFunc(loansHandler.Borrow)))
	mux.Handle("POST /api/loans/{id}/return", authMW(http.HandlerFunc(loansHandler.Return)))
	mux.Handle("GET /api/loans", authMW(http.HandlerFunc(loansHandler.History)))

	// Reports (admin).
	mux.Handle("GET /api/reports/borrowed", authMW(RequireAdmin(http.HandlerFunc(reportsHandler.Borrowed))))
	mux.Handle("GET /api/reports/popular", authMW(RequireAdmin(http.HandlerFunc(reportsHandler.Popular))))

	return mux
}
