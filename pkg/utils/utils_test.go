package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "message not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %s", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "message not found" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSSEFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)
	SendSSEChunk(rec, rec, map[string]string{"type": "text", "message": "hi"})
	SendSSEEvent(rec, rec, "request", map[string]string{"id": "REQ1"})
	SendSSEComment(rec, rec, "heartbeat")

	want := "data: {\"message\":\"hi\",\"type\":\"text\"}\n\n" +
		"event: request\ndata: {\"id\":\"REQ1\"}\n\n" +
		": heartbeat\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected framing:\n%q\nwant\n%q", rec.Body.String(), want)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatal("missing event-stream content type")
	}
}

func TestNewHTTPClientDefaults(t *testing.T) {
	c := NewHTTPClient(0)
	if c.Timeout != 0 {
		t.Fatal("client timeout must stay unset for streaming bodies")
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr.ResponseHeaderTimeout != 60*time.Second {
		t.Fatalf("unexpected transport %+v", c.Transport)
	}
}
