package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/oddiville/sheets/internal/pipeline"
	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/state"
)

// errBadRequest marks request bodies that could not be decoded or did not
// match the request schema.
var errBadRequest = errors.New("malformed request")

// requestError carries the field errors of a rejected request body.
type requestError struct {
	msg    string
	fields []schema.FieldError
}

func (e *requestError) Error() string { return errBadRequest.Error() + ": " + e.msg }

func (e *requestError) Unwrap() error { return errBadRequest }

// errorCode maps an error to its stable machine-readable code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errBadRequest):
		return "INVALID_REQUEST"
	case errors.Is(err, pipeline.ErrUnknownKind):
		return "UNKNOWN_KIND"
	case errors.Is(err, pipeline.ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, pipeline.ErrFetch):
		return "FETCH_FAILED"
	case errors.Is(err, pipeline.ErrSuperseded):
		return "SUPERSEDED"
	case errors.Is(err, state.ErrNoSheet):
		return "NO_SHEET"
	case errors.Is(err, state.ErrNoSuchAction):
		return "NO_SUCH_ACTION"
	default:
		return "INTERNAL_ERROR"
	}
}

// httpStatus maps an error to the response status.
func httpStatus(err error) int {
	switch errorCode(err) {
	case "INVALID_REQUEST":
		return http.StatusBadRequest
	case "UNKNOWN_KIND", "NO_SUCH_ACTION":
		return http.StatusNotFound
	case "VALIDATION_ERROR":
		return http.StatusUnprocessableEntity
	case "FETCH_FAILED":
		return http.StatusBadGateway
	case "SUPERSEDED", "NO_SHEET":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorFields extracts field-level failures, if err carries any.
func errorFields(err error) []schema.FieldError {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var re *requestError
	if errors.As(err, &re) {
		return re.fields
	}
	return nil
}

// writeAppError writes err with the status and code it maps to. Internal
// errors are logged and their message is not exposed.
func writeAppError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	body := errorBody{Error: err.Error(), Code: errorCode(err), Fields: errorFields(err)}
	if status == http.StatusInternalServerError {
		log.Printf("server: internal error: %v", err)
		body.Error = "internal server error"
	}
	writeJSON(w, status, body)
}
