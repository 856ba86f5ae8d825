package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docrepo "github.com/quicksign/quicksign/internal/document/repository"
	"github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/field"
	"github.com/quicksign/quicksign/internal/notify"
	reqrepo "github.com/quicksign/quicksign/internal/request/repository"
	reqservice "github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/internal/storage"
)

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	repo := docrepo.NewMemoryRepo()
	docs := service.New(repo, local, 1<<20)
	fields := field.NewService(field.NewMemoryRepository(), repo)
	outbox := notify.NewOutbox(notify.NewRecorder())
	workflow := reqservice.New(reqrepo.NewMemoryRepository(), repo, fields, outbox, nil, "http://localhost:3000")

	g := gin.New()
	New(docs, workflow, fields).Register(g.Group("/"), fakeAuth("u1"))
	return g
}

func multipartUpload(t *testing.T, filename, contentType string, body []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadPDF(t *testing.T, g *gin.Engine, filename string) string {
	t.Helper()
	buf, ct := multipartUpload(t, filename, "application/pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", buf)
	req.Header.Set("Content-Type", ct)
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Document.ID
}

func TestUploadAndFetch(t *testing.T) {
	g := newTestRouter(t)
	id := uploadPDF(t, g, "contract.pdf")

	// content is public
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%s/content", id), nil)
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())

	// download sets a disposition
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%s/download", id), nil)
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "contract.pdf")

	// listing shows the uploader's document
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Documents []map[string]any `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Documents, 1)
}

func TestUploadRejectsBadType(t *testing.T) {
	g := newTestRouter(t)

	buf, ct := multipartUpload(t, "notes.txt", "text/plain", []byte("hello"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", buf)
	req.Header.Set("Content-Type", ct)
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadMissingFile(t *testing.T) {
	g := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", strings.NewReader(""))
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignersAndSignaturesFlow(t *testing.T) {
	g := newTestRouter(t)
	docID := uploadPDF(t, g, "lease.pdf")

	// add a signer through the document-level route
	w := httptest.NewRecorder()
	body := `{"signers":[{"name":"Alice","email":"alice@example.com"}]}`
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/documents/%s/signers", docID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// sign by email (public route)
	w = httptest.NewRecorder()
	body = `{"signerEmail":"alice@example.com","signatureData":"ink"}`
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/documents/%s/signatures", docID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the signatures listing reflects it
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%s/signatures", docID), nil)
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var sigs struct {
		Signatures []map[string]any `json:"signatures"`
		Status     string           `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sigs))
	assert.Len(t, sigs.Signatures, 1)
	assert.Equal(t, "completed", sigs.Status)

	// unknown signer is a 404
	w = httptest.NewRecorder()
	body = `{"signerEmail":"nobody@example.com"}`
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/documents/%s/signatures", docID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFieldRoutes(t *testing.T) {
	g := newTestRouter(t)
	docID := uploadPDF(t, g, "form.pdf")

	w := httptest.NewRecorder()
	body := `{"type":"signature","page":2,"x":10,"y":20,"assignedTo":"alice@example.com"}`
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/documents/%s/fields", docID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// filtered listing hides other signers' fields
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%s/fields?signerEmail=bob@example.com", docID), nil)
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var fields struct {
		Fields []map[string]any `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.Empty(t, fields.Fields)

	// unknown document is a 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/documents/nope/fields", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
