package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// allowedImageExts lists the upload extensions the admin panel may store.
var allowedImageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".svg": {},
}

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadImage stores a multipart image under a unique name and returns the
// path it is served from.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		writeError(w, http.StatusUnprocessableEntity, "unsupported image type "+ext)
		return
	}

	name := uuid.New().String() + ext
	if err := h.saveUpload(file, name); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		URL:      "/uploads/" + name,
		Filename: name,
	})
}

func (h *Handler) saveUpload(src io.Reader, name string) error {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return errors.Wrap(err, "create upload dir")
	}

	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return errors.Wrap(err, "create upload file")
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return errors.Wrap(err, "write upload file")
	}
	return dst.Close()
}
