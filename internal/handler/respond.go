package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/templui/portfolio/internal/apperr"
	"github.com/templui/portfolio/internal/ctxkeys"
)

const (
	maxJSONBody      = 1 << 20  // 1MB
	maxMultipartBody = 12 << 20 // two 5MB images plus fields
	serverErrorMsg   = "Server error"
)

var errInvalidBody = apperr.Validation("Invalid request body")

// envelope is the response body shape: success plus route-specific fields.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, status, body)
}

// writeError maps err to the failure envelope. Classified errors keep their
// message; everything else is logged and reported as a generic 500. In
// development the underlying cause is included as "error".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := serverErrorMsg

	appErr, ok := apperr.From(err)
	if ok {
		status = appErr.Kind.Status()
		message = appErr.Message
	}

	body := envelope{"success": false, "message": message}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		cfg := ctxkeys.Config(r.Context())
		if cfg != nil && cfg.IsDevelopment() {
			body["error"] = err.Error()
		}
	}

	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Wrap(apperr.KindValidation, "Request body too large", err)
		}
		return apperr.Wrap(apperr.KindValidation, errInvalidBody.Message, err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// form wraps a parsed multipart request. Fields absent from the request
// come back as nil so partial updates leave them untouched. The zero form
// holds no fields, which is what JSON requests get.
type form struct {
	mf *multipart.Form
}

func parseMultipart(w http.ResponseWriter, r *http.Request) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	err := r.ParseMultipartForm(maxMultipartBody)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.Wrap(apperr.KindValidation, "Request body too large", err)
		}
		return nil, apperr.Wrap(apperr.KindValidation, errInvalidBody.Message, err)
	}
	return &form{mf: r.MultipartForm}, nil
}

func (f *form) value(name string) *string {
	values := f.values(name)
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// values returns every occurrence of a repeated field, or nil when absent.
func (f *form) values(name string) []string {
	if f.mf == nil {
		return nil
	}
	return f.mf.Value[name]
}

func (f *form) file(name string) *multipart.FileHeader {
	if f.mf == nil || len(f.mf.File[name]) == 0 {
		return nil
	}
	return f.mf.File[name][0]
}

func (f *form) cleanup() {
	if f.mf != nil {
		_ = f.mf.RemoveAll()
	}
}
