package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/campusnotify/internal/notify"
	"github.com/dmitrymomot/campusnotify/pkg/geo"
	"github.com/dmitrymomot/campusnotify/pkg/pushsub"
)

// HTTPError is an error with a status code and a stable machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest           = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized         = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden            = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound             = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrRequestTooLarge      = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrUnsupportedMediaType = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrUnprocessableEntity  = HTTPError{Code: http.StatusUnprocessableEntity, Key: "unprocessable_entity"}
	ErrTooManyRequests      = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError  = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// Request decoding errors.
var (
	ErrInvalidJSON        = errors.New("invalid JSON")
	ErrMissingContentType = errors.New("missing content type")
	ErrWrongContentType   = errors.New("unsupported content type")
	ErrBodyTooLarge       = errors.New("request body too large")
)

// classify maps domain errors onto HTTP errors. Unknown errors become 500.
func classify(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrBodyTooLarge):
		return ErrRequestTooLarge
	case errors.Is(err, ErrMissingContentType), errors.Is(err, ErrWrongContentType):
		return ErrUnsupportedMediaType
	case errors.Is(err, ErrInvalidJSON):
		return ErrBadRequest
	case errors.Is(err, pushsub.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, pushsub.ErrInvalidSubscription),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, notify.ErrRecipientRequired),
		errors.Is(err, notify.ErrInvalidRadius),
		errors.Is(err, notify.ErrOutsideCampus):
		return ErrUnprocessableEntity
	default:
		return ErrInternalServerError
	}
}
