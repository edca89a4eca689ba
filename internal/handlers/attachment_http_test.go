package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/presign"
)

func newAttachmentFixture(t *testing.T) (*AttachmentHTTP, http.Handler) {
	t.Helper()
	h := NewAttachmentHTTP(presign.New("test-secret"), t.TempDir(), "http://localhost:8080", zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/api/attachments/upload-url", h.UploadURL())
	r.Put("/attachments/{key}", h.Put())
	r.Get("/attachments/{key}", h.Get())
	return h, r
}

func TestUploadURLValidation(t *testing.T) {
	_, r := newAttachmentFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing fileName", `{"contentType":"image/png"}`},
		{"missing contentType", `{"fileName":"a.png"}`},
		{"disallowed type", `{"fileName":"a.pdf","contentType":"application/pdf"}`},
		{"extension mismatch", `{"fileName":"a.png","contentType":"image/jpeg"}`},
		{"no extension", `{"fileName":"file","contentType":"image/png"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doJSON(r, http.MethodPost, "/api/attachments/upload-url", tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", w.Code)
			}
		})
	}
}

func TestUploadURLIssuesSignedTarget(t *testing.T) {
	_, r := newAttachmentFixture(t)

	w := doJSON(r, http.MethodPost, "/api/attachments/upload-url", `{"fileName":"shot.png","contentType":"image/png"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		UploadURL string `json:"uploadUrl"`
		Key       string `json:"key"`
		PublicURL string `json:"publicUrl"`
		ExpiresIn int    `json:"expiresIn"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if out.ExpiresIn != 3600 {
		t.Fatalf("expiresIn = %d, want 3600", out.ExpiresIn)
	}
	if !strings.HasSuffix(out.Key, "-shot.png") {
		t.Fatalf("key = %q, want original name preserved in suffix", out.Key)
	}
	u, err := url.Parse(out.UploadURL)
	if err != nil || u.Query().Get("sig") == "" || u.Query().Get("expires") == "" {
		t.Fatalf("upload url = %q", out.UploadURL)
	}
}

func TestUploadURLGroupsKeyByTicket(t *testing.T) {
	_, r := newAttachmentFixture(t)

	w := doJSON(r, http.MethodPost, "/api/attachments/upload-url",
		`{"fileName":"shot.png","contentType":"image/png","ticketId":"t-42"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Key string `json:"key"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if !strings.HasPrefix(out.Key, "t-42-") {
		t.Fatalf("key = %q, want ticket id prefix", out.Key)
	}

	// A ticket id trying to climb out of the directory is reduced to
	// its base name.
	w = doJSON(r, http.MethodPost, "/api/attachments/upload-url",
		`{"fileName":"shot.png","contentType":"image/png","ticketId":"../../etc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if strings.Contains(out.Key, "/") || strings.Contains(out.Key, "..") {
		t.Fatalf("key = %q, want sanitized prefix", out.Key)
	}
}

func TestPutRequiresValidSignature(t *testing.T) {
	h, r := newAttachmentFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/attachments/k-1?expires=9999999999&sig=bogus", strings.NewReader("data"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("forged signature got %d, want 403", w.Code)
	}

	// A properly signed URL stores the file and it becomes fetchable.
	signed := h.signer.UploadURL("", "k-1", time.Hour)
	req = httptest.NewRequest(http.MethodPut, signed, strings.NewReader("imagebytes"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("signed upload got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/attachments/k-1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "imagebytes" {
		t.Fatalf("fetch got %d %q", w.Code, w.Body.String())
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	h, _ := newAttachmentFixture(t)

	for _, key := range []string{"..", "a/../b", `a\b`, ""} {
		if _, ok := h.safePath(key); ok {
			t.Fatalf("key %q accepted, want rejection", key)
		}
	}
	if _, ok := h.safePath("20240101T000000-abc-shot.png"); !ok {
		t.Fatalf("plain key rejected")
	}
}

func TestGetMissingAttachment(t *testing.T) {
	_, r := newAttachmentFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/attachments/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", w.Code)
	}
}

func TestSafePathStaysInDir(t *testing.T) {
	h := NewAttachmentHTTP(presign.New("s"), filepath.Join(os.TempDir(), "att"), "", zerolog.Nop())
	p, ok := h.safePath("file.png")
	if !ok || !strings.HasPrefix(p, filepath.Join(os.TempDir(), "att")) {
		t.Fatalf("path = %q", p)
	}
}
