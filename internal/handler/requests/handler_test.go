package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lease-desk/internal/model/request"
	requestsvc "github.com/zhouzirui/lease-desk/internal/service/requests"
)

type fakeFetcher struct {
	records []request.Record
	err     error
	scope   requestsvc.Scope
	query   requestsvc.Query
}

func (f *fakeFetcher) Fetch(_ context.Context, scope requestsvc.Scope, q requestsvc.Query) ([]request.Record, error) {
	f.scope = scope
	f.query = q
	return f.records, f.err
}

func newRouter(board *requestsvc.Board, fetcher Fetcher) *chi.Mux {
	r := chi.NewRouter()
	New(board, fetcher, requestsvc.Query{TenantEmail: "t@example.com", LeaseID: 3}).RegisterRoutes(r)
	return r
}

func decodeList(t *testing.T, resp *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var out listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestListIncludesObservedDrafts(t *testing.T) {
	board := requestsvc.NewBoard()
	board.RequestObserved(request.Draft{ID: "REQ1", Status: request.StatusOpen})

	resp := httptest.NewRecorder()
	newRouter(board, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/requests", nil))

	out := decodeList(t, resp)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 1, out.Stats.Open)
}

func TestRemoteMergesListing(t *testing.T) {
	board := requestsvc.NewBoard()
	board.RequestObserved(request.Draft{ID: "REQLOCAL", Status: request.StatusOpen})
	fetcher := &fakeFetcher{records: []request.Record{{ID: "R-9", Status: request.StatusInProgress}}}

	resp := httptest.NewRecorder()
	newRouter(board, fetcher).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/requests/remote?scope=landlord&limit=5", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeList(t, resp)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "REQLOCAL", out.Items[0].ID)
	assert.Equal(t, "R-9", out.Items[1].ID)
	assert.Equal(t, requestsvc.ScopeLandlord, fetcher.scope)
	assert.Equal(t, 5, fetcher.query.Limit)
	assert.Equal(t, "t@example.com", fetcher.query.TenantEmail)
}

func TestRemoteErrors(t *testing.T) {
	board := requestsvc.NewBoard()

	resp := httptest.NewRecorder()
	newRouter(board, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/requests/remote", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = httptest.NewRecorder()
	newRouter(board, &fakeFetcher{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/requests/remote?scope=admin", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	newRouter(board, &fakeFetcher{err: errors.New("down")}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/requests/remote", nil))
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestSetStatus(t *testing.T) {
	board := requestsvc.NewBoard()
	board.RequestObserved(request.Draft{ID: "REQ1", Status: request.StatusOpen})
	r := newRouter(board, nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/requests/REQ1", bytes.NewBufferString(`{"status":"resolved"}`)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, board.Stats().Resolved)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/requests/REQ1", bytes.NewBufferString(`{"status":"done"}`)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/requests/NOPE", bytes.NewBufferString(`{"status":"open"}`)))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
