package attachment

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lease-desk/internal/model/chat"
	attachmentsvc "github.com/zhouzirui/lease-desk/internal/service/attachment"
)

func setup(maxBytes int64) (*chi.Mux, *attachmentsvc.Manager, *attachmentsvc.MemoryRefStore) {
	refs := attachmentsvc.NewMemoryRefStore()
	manager := attachmentsvc.NewManager(refs, attachmentsvc.Options{MaxBytes: maxBytes})
	r := chi.NewRouter()
	New(manager).RegisterRoutes(r)
	return r, manager, refs
}

func uploadRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadListRemove(t *testing.T) {
	r, manager, refs := setup(0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, map[string][]byte{"leak.txt": []byte("water under the sink")}))
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		Items []chat.Attachment `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Len(t, created.Items, 1)
	assert.Equal(t, "leak.txt", created.Items[0].Name)
	assert.EqualValues(t, 20, created.Items[0].Size)
	assert.Equal(t, 1, manager.Len())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/attachments", nil))
	assert.Contains(t, resp.Body.String(), created.Items[0].ID)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/attachments/"+created.Items[0].ID, nil))
	assert.JSONEq(t, `{"removed":true}`, resp.Body.String())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/attachments/"+created.Items[0].ID, nil))
	assert.JSONEq(t, `{"removed":false}`, resp.Body.String())

	acquired, released := refs.Counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
}

func TestUploadTooLarge(t *testing.T) {
	r, manager, _ := setup(4)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, map[string][]byte{"big.bin": []byte("0123456789")}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Contains(t, resp.Body.String(), "big.bin (10 bytes)")
	assert.Zero(t, manager.Len())
}

func TestReadPartStopsAtLimit(t *testing.T) {
	req := uploadRequest(t, map[string][]byte{"big.bin": bytes.Repeat([]byte("x"), 64)})
	require.NoError(t, req.ParseMultipartForm(maxMemory))
	fh := req.MultipartForm.File["file"][0]

	data, err := readPart(fh, 8)
	require.NoError(t, err)
	assert.Len(t, data, 9)

	data, err = readPart(fh, 0)
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestUploadRequiresFile(t *testing.T) {
	r, _, _ := setup(0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestClearAndEmptyList(t *testing.T) {
	r, _, _ := setup(0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, map[string][]byte{"a.txt": []byte("a"), "b.txt": []byte("b")}))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/attachments", nil))
	assert.JSONEq(t, `{"cleared":2}`, resp.Body.String())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/attachments", nil))
	assert.JSONEq(t, `{"items":[]}`, resp.Body.String())
}
