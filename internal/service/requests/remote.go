package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/lease-desk/internal/model/request"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// Scope selects which listing to fetch.
type Scope string

const (
	ScopeTenant   Scope = "tenant"
	ScopeLandlord Scope = "landlord"
)

// ParseScope accepts "tenant" or "landlord", defaulting to tenant.
func ParseScope(raw string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ScopeTenant):
		return ScopeTenant, nil
	case string(ScopeLandlord):
		return ScopeLandlord, nil
	default:
		return "", fmt.Errorf("unknown scope %q", raw)
	}
}

// Query narrows a tenant listing.
type Query struct {
	TenantEmail string
	LeaseID     int
	Limit       int
}

// Client reads request listings from the assistant service.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a listing client.
func NewClient(baseURL, token string, timeout time.Duration, httpClient *http.Client) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		timeout: timeout,
		http:    httpClient,
	}
}

// Fetch loads the listing for scope.
func (c *Client) Fetch(ctx context.Context, scope Scope, q Query) ([]request.Record, error) {
	params := url.Values{}
	var path string
	switch scope {
	case ScopeLandlord:
		path = "/landlord/requests"
	default:
		path = "/tenant/requests"
		if q.TenantEmail != "" {
			params.Set("tenantEmail", q.TenantEmail)
		}
		if q.LeaseID > 0 {
			params.Set("leaseId", strconv.Itoa(q.LeaseID))
		}
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	records := make([]request.Record, 0, len(payload.Items))
	for _, item := range payload.Items {
		records = append(records, normalize(item))
	}
	return records, nil
}

func normalize(item map[string]any) request.Record {
	return request.Record{
		ID:          strings.ToUpper(field(item, "id", "")),
		Tenant:      field(item, "tenant", ""),
		Description: field(item, "description", ""),
		Urgency:     request.Urgency(field(item, "urgency", string(request.UrgencyMedium))),
		Category:    request.Category(field(item, "category", string(request.CategoryOther))),
		Status:      request.Status(field(item, "status", string(request.StatusOpen))),
		Date:        field(item, "date", ""),
	}
}

// field stringifies item[key], falling back to def when missing or null.
func field(item map[string]any, key, def string) string {
	v, ok := item[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
