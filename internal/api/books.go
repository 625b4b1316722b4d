package api

import (
	"net/http"
	"strconv"

	"libris/internal/model"
	"libris/internal/store"
)

// BooksHandler handles catalog CRUD endpoints.
type BooksHandler struct {
	Inventory *store.Inventory
}

type bookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"published_year"`
	ISBN          string `json:"isbn"`
	Quantity      int    `json:"quantity"`
}

func (r *bookRequest) validate() string {
	if r.Title == "" {
		return "title required"
	}
	if r.Author == "" {
		return "author required"
	}
	if r.ISBN == "" {
		return "isbn required"
	}
	if r.Quantity < 0 {
		return "quantity must not be negative"
	}
	return ""
}

// List handles GET /api/books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.BookFilter{
		Title:         q.Get("title"),
		Author:        q.Get("author"),
		AvailableOnly: q.Get("available") != "",
	}

	books, err := h.Inventory.ListBooks(r.Context(), filter)
	if err != nil {
		storeError(w, err)
		return
	}
	if books == nil {
		books = []model.Book{}
	}
	jsonResponse(w, http.StatusOK, books)
}

// Create handles POST /api/books.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	book, err := h.Inventory.CreateBook(r.Context(), req.Title, req.Author, req.PublishedYear, req.ISBN, req.Quantity)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, book)
}

// Get handles GET /api/books/{id}.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := h.Inventory.GetBook(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, book)
}

// Update handles PUT /api/books/{id}.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	book, err := h.Inventory.UpdateBook(r.Context(), id, req.Title, req.Author, req.PublishedYear, req.ISBN, req.Quantity)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, book)
}

// Delete handles DELETE /api/books/{id}.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	if err := h.Inventory.DeleteBook(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
