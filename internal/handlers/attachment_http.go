package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/presign"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

// Only image types may be attached to comments, and each file is
// capped at 5 MiB.
const maxAttachmentBytes = 5 << 20

var allowedAttachmentTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// AttachmentHTTP implements the two-step upload protocol: hand out a
// signed PUT target, then accept the raw bytes on that target.
type AttachmentHTTP struct {
	signer     *presign.Signer
	dir        string
	publicBase string
	log        zerolog.Logger
}

func NewAttachmentHTTP(signer *presign.Signer, dir, publicBase string, log zerolog.Logger) *AttachmentHTTP {
	return &AttachmentHTTP{signer: signer, dir: dir, publicBase: publicBase, log: log}
}

// POST /api/attachments/upload-url
func (h *AttachmentHTTP) UploadURL() http.HandlerFunc {
	type inDTO struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
		TicketID    string `json:"ticketId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		fileName := filepath.Base(strings.TrimSpace(in.FileName))
		contentType := strings.TrimSpace(in.ContentType)
		if fileName == "" || fileName == "." {
			utils.Error(w, http.StatusBadRequest, "fileName is required")
			return
		}
		if contentType == "" {
			utils.Error(w, http.StatusBadRequest, "contentType is required")
			return
		}

		exts, ok := allowedAttachmentTypes[contentType]
		if !ok {
			utils.Error(w, http.StatusBadRequest,
				"File type "+contentType+" not allowed. Allowed: image/jpeg, image/png, image/gif, image/webp")
			return
		}
		ext := strings.ToLower(filepath.Ext(fileName))
		if ext == "" {
			utils.Error(w, http.StatusBadRequest, "File must have an extension (e.g., .png, .jpg)")
			return
		}
		extOK := false
		for _, e := range exts {
			if e == ext {
				extOK = true
				break
			}
		}
		if !extOK {
			utils.Error(w, http.StatusBadRequest,
				"File extension "+ext+" does not match content type "+contentType)
			return
		}

		key := time.Now().UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8] + "-" + fileName
		// Attachments are grouped by ticket when the client names one.
		if tid := filepath.Base(strings.TrimSpace(in.TicketID)); tid != "" && tid != "." && tid != ".." {
			key = tid + "-" + key
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"uploadUrl": h.signer.UploadURL(h.publicBase, key, time.Hour),
			"key":       key,
			"publicUrl": h.publicBase + "/attachments/" + key,
			"expiresIn": 3600,
		})
	}
}

// safePath rejects keys that try to escape the attachments directory.
func (h *AttachmentHTTP) safePath(key string) (string, bool) {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") || strings.Contains(key, "..") {
		return "", false
	}
	return filepath.Join(h.dir, key), true
}

// PUT /attachments/{key}?expires=&sig=
func (h *AttachmentHTTP) Put() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		path, ok := h.safePath(key)
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid key")
			return
		}
		q := r.URL.Query()
		if err := h.signer.Verify(key, q.Get("expires"), q.Get("sig")); err != nil {
			utils.Error(w, http.StatusForbidden, "upload url rejected")
			return
		}

		if err := os.MkdirAll(h.dir, 0o755); err != nil {
			utils.Error(w, http.StatusInternalServerError, "storage unavailable")
			return
		}
		f, err := os.Create(path)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "storage unavailable")
			return
		}
		defer f.Close()

		limited := http.MaxBytesReader(w, r.Body, maxAttachmentBytes)
		if _, err := io.Copy(f, limited); err != nil {
			os.Remove(path)
			utils.Error(w, http.StatusRequestEntityTooLarge, "attachment exceeds 5 MiB")
			return
		}
		h.log.Debug().Str("key", key).Msg("attachment stored")
		w.WriteHeader(http.StatusOK)
	}
}

// GET /attachments/{key}
func (h *AttachmentHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, ok := h.safePath(chi.URLParam(r, "key"))
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid key")
			return
		}
		if _, err := os.Stat(path); err != nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		http.ServeFile(w, r, path)
	}
}
