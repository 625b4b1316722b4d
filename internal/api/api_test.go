package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libris/internal/auth"
	"libris/internal/db"
	"libris/internal/model"
	"libris/internal/notify"
	"libris/internal/store"
)

const testJWTSecret = "test-secret"

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	inventory := store.NewInventory(database, zerolog.Nop())
	ledger := store.NewLedger(database, inventory, notify.LogNotifier{Log: zerolog.Nop()}, zerolog.Nop())
	server := httptest.NewServer(NewRouter(inventory, ledger, testJWTSecret))
	t.Cleanup(server.Close)
	return server
}

func token(t *testing.T, userID int64, admin bool) string {
	t.Helper()
	tok, err := auth.GenerateToken(testJWTSecret, userID, admin)
	require.NoError(t, err)
	return tok
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createBook(t *testing.T, server *httptest.Server, admin string, title string, quantity int) model.Book {
	t.Helper()
	resp := doJSON(t, "POST", server.URL+"/api/books", admin, map[string]any{
		"title":          title,
		"author":         "Test Author",
		"published_year": 2001,
		"isbn":           "isbn-" + title,
		"quantity":       quantity,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[model.Book](t, resp)
}

func TestAuthRequired(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, "GET", server.URL+"/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, "POST", server.URL+"/api/loans", "garbage-token", map[string]any{"book_id": 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCatalogAdminGate(t *testing.T) {
	server := setupTestServer(t)
	user := token(t, 1, false)
	admin := token(t, 2, true)

	resp := doJSON(t, "POST", server.URL+"/api/books", user, map[string]any{
		"title": "Nope", "author": "A", "isbn": "x", "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	book := createBook(t, server, admin, "Allowed", 1)
	assert.Equal(t, "Allowed", book.Title)
	assert.Equal(t, 1, book.AvailableQuantity)
}

func TestBorrowReturnFlow(t *testing.T) {
	server := setupTestServer(t)
	admin := token(t, 1, true)
	alice := token(t, 2, false)
	bob := token(t, 3, false)

	book := createBook(t, server, admin, "Popular", 1)

	// Alice borrows the last copy.
	resp := doJSON(t, "POST", server.URL+"/api/loans", alice, map[string]any{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	loan := decodeBody[model.Loan](t, resp)
	assert.Equal(t, int64(2), loan.UserID)
	assert.Nil(t, loan.ReturnedAt)

	// Bob gets a conflict, not a loan.
	resp = doJSON(t, "POST", server.URL+"/api/loans", bob, map[string]any{"book_id": book.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Bob cannot return Alice's loan.
	resp = doJSON(t, "POST", server.URL+"/api/loans/"+loan.ID+"/return", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Alice returns it, once.
	resp = doJSON(t, "POST", server.URL+"/api/loans/"+loan.ID+"/return", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	returned := decodeBody[model.Loan](t, resp)
	assert.NotNil(t, returned.ReturnedAt)

	resp = doJSON(t, "POST", server.URL+"/api/loans/"+loan.ID+"/return", alice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// History shows the closed loan.
	resp = doJSON(t, "GET", server.URL+"/api/loans", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody[[]model.Loan](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, loan.ID, history[0].ID)
}

func TestBorrowErrors(t *testing.T) {
	server := setupTestServer(t)
	alice := token(t, 1, false)

	resp := doJSON(t, "POST", server.URL+"/api/loans", alice, map[string]any{"book_id": 999})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, "POST", server.URL+"/api/loans", alice, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, "POST", server.URL+"/api/loans/no-such-loan/return", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogUpdateConflict(t *testing.T) {
	server := setupTestServer(t)
	admin := token(t, 1, true)
	alice := token(t, 2, false)

	book := createBook(t, server, admin, "Shrinking", 1)

	resp := doJSON(t, "POST", server.URL+"/api/loans", alice, map[string]any{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Editing the catalog below the active-loan count is refused.
	resp = doJSON(t, "PUT", server.URL+"/api/books/"+itoa(book.ID), admin, map[string]any{
		"title": "Shrinking", "author": "Test Author", "published_year": 2001,
		"isbn": book.ISBN, "quantity": 0,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, "DELETE", server.URL+"/api/books/"+itoa(book.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReportsAdminOnly(t *testing.T) {
	server := setupTestServer(t)
	admin := token(t, 1, true)
	alice := token(t, 2, false)

	book := createBook(t, server, admin, "Reported", 2)
	resp := doJSON(t, "POST", server.URL+"/api/loans", alice, map[string]any{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, "GET", server.URL+"/api/reports/borrowed", alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, "GET", server.URL+"/api/reports/borrowed", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	open := decodeBody[[]model.Loan](t, resp)
	require.Len(t, open, 1)
	assert.Equal(t, "Reported", open[0].BookTitle)

	resp = doJSON(t, "GET", server.URL+"/api/reports/popular", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	popular := decodeBody[[]model.PopularBook](t, resp)
	require.Len(t, popular, 1)
	assert.Equal(t, 1, popular[0].BorrowCount)
}
