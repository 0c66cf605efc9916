// Package httpx provides HTTP response utilities.
package httpx

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	StatusCode int    `json:"status_code"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// DecodeObject decodes the request body as a JSON object. An empty body yields an empty map.
func DecodeObject(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil || r.Body == http.NoBody {
		return body, nil
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(buf.Bytes(), &body); err != nil {
		return nil, NewError(ErrValidation, "The request body is not a valid JSON object.", "Check the request payload and try again.")
	}
	return body, nil
}

// Bind copies a decoded object onto a typed request struct.
func Bind(values map[string]any, target any) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return NewError(ErrValidation, "One or more fields have an invalid type.", "Check the request payload and try again.")
	}
	return nil
}
