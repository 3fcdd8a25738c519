package requests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lease-desk/internal/model/request"
	"github.com/zhouzirui/lease-desk/internal/service/coordinator"
)

var _ coordinator.Observer = (*Board)(nil)

func draft(id string, status request.Status) request.Draft {
	return request.Draft{ID: id, Description: "leak", Urgency: request.UrgencyHigh, Category: request.CategoryPlumbing, Status: status, Date: "2026-03-14"}
}

func TestBoardPrependsObservedDrafts(t *testing.T) {
	b := NewBoard()
	b.RequestObserved(draft("REQ1", request.StatusOpen))
	b.RequestObserved(draft("REQ2", request.StatusOpen))

	list := b.List()
	require.Len(t, list, 2)
	assert.Equal(t, "REQ2", list[0].ID)
	assert.Equal(t, "REQ1", list[1].ID)
}

func TestBoardStatsAndStatus(t *testing.T) {
	b := NewBoard()
	b.RequestObserved(draft("REQ1", request.StatusOpen))
	b.RequestObserved(draft("REQ2", request.StatusOpen))
	b.RequestObserved(draft("REQ3", request.StatusOpen))

	_, err := b.SetStatus("REQ2", request.StatusInProgress)
	require.NoError(t, err)
	_, err = b.SetStatus("REQ3", request.StatusResolved)
	require.NoError(t, err)
	_, err = b.SetStatus("REQ9", request.StatusResolved)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	assert.Equal(t, Stats{Total: 3, Open: 1, InProgress: 1, Resolved: 1}, b.Stats())
}

func TestBoardReplaceKeepsUnsyncedDrafts(t *testing.T) {
	b := NewBoard()
	b.RequestObserved(draft("REQ1", request.StatusOpen))
	b.RequestObserved(draft("REQ2", request.StatusOpen))

	b.Replace([]request.Record{
		{ID: "REQ1", Description: "server copy", Status: request.StatusInProgress},
		{ID: "REQ77", Description: "older", Status: request.StatusResolved},
	})

	list := b.List()
	require.Len(t, list, 3)
	assert.Equal(t, "REQ2", list[0].ID)
	assert.Equal(t, "server copy", list[1].Description)
	assert.Equal(t, "REQ77", list[2].ID)
}

func TestClientFetchTenantNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tenant/requests", r.URL.Path)
		assert.Equal(t, "t@example.com", r.URL.Query().Get("tenantEmail"))
		assert.Equal(t, "2", r.URL.Query().Get("leaseId"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[
			{"id":"req12","description":"Leaky faucet","urgency":"high","category":"plumbing","status":"in-progress","date":"2026-03-01"},
			{"id":42,"description":"No defaults given","urgency":null}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "tok", 0, nil)
	records, err := client.Fetch(context.Background(), ScopeTenant, Query{TenantEmail: "t@example.com", LeaseID: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, request.Record{
		ID: "REQ12", Description: "Leaky faucet", Urgency: request.UrgencyHigh,
		Category: request.CategoryPlumbing, Status: request.StatusInProgress, Date: "2026-03-01",
	}, records[0])

	assert.Equal(t, "42", records[1].ID)
	assert.Equal(t, request.UrgencyMedium, records[1].Urgency)
	assert.Equal(t, request.CategoryOther, records[1].Category)
	assert.Equal(t, request.StatusOpen, records[1].Status)
}

func TestClientFetchLandlord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/landlord/requests", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("tenantEmail"))
		_, _ = w.Write([]byte(`{"items":[{"id":"REQ5","tenant":"Ana","description":"Heater"}]}`))
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL, "", 0, nil).Fetch(context.Background(), ScopeLandlord, Query{TenantEmail: "ignored"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0].Tenant)
}

func TestClientFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"tenantEmail or tenantId or leaseId is required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0, nil).Fetch(context.Background(), ScopeTenant, Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeTenant, s)

	s, err = ParseScope("Landlord")
	require.NoError(t, err)
	assert.Equal(t, ScopeLandlord, s)

	_, err = ParseScope("admin")
	assert.Error(t, err)
}
