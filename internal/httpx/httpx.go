// Package httpx writes JSON responses and the API error envelope.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/DongSeo/platform/internal/apperr"
)

const (
	badRequestPrefix = "에러 발생: "
	internalPrefix   = "서버 오류가 발생했습니다: "
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteText writes a plain text body.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Envelope is the JSON error body.
type Envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// NewEnvelope classifies err into a response body. Errors without an
// apperr kind are reported as internal server errors.
func NewEnvelope(err error) Envelope {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}

	switch kind {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindCalculationAmbiguity:
		message = badRequestPrefix + message
	case apperr.KindInternal:
		message = internalPrefix + message
	}

	return Envelope{
		Error:   string(kind),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WriteError writes err as an Envelope tagged with the chi request id.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	env := NewEnvelope(err)
	if r != nil {
		env.RequestID = sanitize(middleware.GetReqID(r.Context()), 80)
	}
	WriteJSON(w, env.Status, env)
}

// DecodeJSON reads a JSON request body into v, mapping failures to validation errors.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("요청 본문이 비어 있습니다.")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, "잘못된 요청 형식입니다.", err)
	}
	return nil
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	value = value[:limit]
	for !utf8.ValidString(value) {
		value = value[:len(value)-1]
	}
	return value
}
