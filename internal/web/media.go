package web

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/ops"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// HandleUpload handles POST /api/upload/{kind} with a multipart "file" field.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(100) << 20
	if h.env.Config != nil && h.env.Config.MaxUploadMB > 0 {
		limit = int64(h.env.Config.MaxUploadMB) << 20
	}
	// Headroom for the multipart envelope; the operation enforces the exact limit.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.fail(w, r, errors.NewInvalidRequest("file exceeds the upload limit"))
			return
		}
		h.fail(w, r, errors.NewInvalidRequest("request must be multipart/form-data with a file field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, errors.NewInvalidRequest("file is required"))
		return
	}
	defer file.Close()

	out, err := ops.Upload(r.Context(), h.env, callerFrom(r), ops.UploadInput{
		Kind:     mux.Vars(r)["kind"],
		FileName: header.Filename,
		Body:     file,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// HandleMedia handles GET /uploads/{name}. Stores that can presign send
// the client straight to the object; the local store streams the file.
func (h *Handlers) HandleMedia(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := storage.ValidateName(name); err != nil {
		h.fail(w, r, errors.NewNotFound("file", name))
		return
	}
	if h.env.Store == nil {
		h.fail(w, r, errors.NewNotFound("file", name))
		return
	}

	if p, ok := h.env.Store.(storage.Presigner); ok {
		url, err := p.PresignedURL(r.Context(), name)
		if err != nil {
			h.fail(w, r, errors.NewInternal(err))
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	rc, err := h.env.Store.Open(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentType(name))
	// Names are never reused.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn(r.Context(), "media stream interrupted", "name", name, "error", err)
	}
}
