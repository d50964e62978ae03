package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
)

const maxBodyBytes = 1 << 20

// validationError is a malformed or out-of-range request. It maps to 422.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and answers {"detail": ...}.
// resource names the catalog behind the request, as in "Pricing data".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, resource string, err error) {
	var (
		verr *validationError
		kerr *pricing.ModelKeyError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: verr.msg})
	case errors.As(err, &kerr):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: kerr.Message})
	case errors.Is(err, pricing.ErrModelCount), errors.Is(err, pricing.ErrNegativeTokens):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: err.Error()})
	case errors.Is(err, catalog.ErrUnavailable):
		s.logger.Error("catalog unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: resource + " not available."})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: fmt.Sprintf("Unexpected error: %v", err)})
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return invalid("could not read request body")
	}
	if len(body) == 0 {
		return invalid("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalid("%s: expected %s", typeErr.Field, typeErr.Type)
		}
		return invalid("invalid JSON body")
	}
	return nil
}
