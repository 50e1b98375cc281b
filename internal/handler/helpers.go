package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/registry"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// readJSON decodes the request body as JSON into v. The body must be a JSON
// object: `null`, arrays, and bare scalars decode into a zero struct without
// error, which would misreport a malformed body as missing fields. The body
// is closed after decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return errors.New("request body is not a JSON object")
	}
	return json.Unmarshal(data, v)
}

// classifyRegistryError maps the registry's error taxonomy onto HTTP status
// codes with messages actionable enough to fix the request. Internal faults
// get a generic message; their details are logged, not exposed.
func classifyRegistryError(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrForbidden):
		return http.StatusForbidden, "Superadmin access required"
	case errors.Is(err, registry.ErrMalformedBody):
		return http.StatusBadRequest, "Malformed request body"
	case errors.Is(err, registry.ErrMissingFields):
		return http.StatusBadRequest, "Email and password are required"
	case errors.Is(err, registry.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email address"
	case errors.Is(err, registry.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 6 characters"
	case errors.Is(err, registry.ErrInvalidRole):
		return http.StatusBadRequest, "Role must be admin or superadmin"
	case errors.Is(err, registry.ErrEmailTaken):
		return http.StatusConflict, "Admin with this email already exists"
	case errors.Is(err, registry.ErrUnavailable):
		return http.StatusServiceUnavailable, "A backing service is unavailable"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
