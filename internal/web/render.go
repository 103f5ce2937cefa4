package web

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// maxJSONBody bounds request bodies of JSON endpoints.
const maxJSONBody = 1 << 20

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes {"error": {code, message, status}}. Causes of internal
// and upstream failures go to the log, never to the client.
func renderError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	appErr := errors.As(err)
	if appErr.Status >= 500 {
		logger.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", string(appErr.Code),
			"error", err,
		)
	}
	renderJSON(w, appErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(appErr.Code),
			"message": appErr.Message,
			"status":  appErr.Status,
		},
	})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.NewInvalidRequest("request body must be valid JSON")
	}
	return nil
}

// renderFile sends data as a download named fileName.
func renderFile(w http.ResponseWriter, data []byte, fileName, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
