package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxBodySize caps JSON request bodies.
const MaxBodySize = 64 << 10

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type, expected application/json")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrInvalidBody          = errors.New("invalid request body")
	ErrInvalidField         = errors.New("missing or invalid field")
)

type validatable interface {
	validate() error
}

// bind decodes a strict JSON body into dst and validates it. On failure it
// writes the error response and returns false.
func (h *handler) bind(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	err := decodeJSON(w, r, dst)
	if err == nil {
		err = dst.validate()
	}
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
	case errors.Is(err, ErrBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	}
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ErrUnsupportedMediaType
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return ErrBodyTooLarge
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		default:
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", ErrInvalidBody)
	}
	return nil
}

func invalidField(name string) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, name)
}
