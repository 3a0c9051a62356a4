package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}

// JSONErrorMessage is JSONError with a human readable (already localized) message.
func JSONErrorMessage(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

// WantsJSON reports whether the client prefers a JSON answer over HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

var (
	ErrBadJSON = errors.New("invalid_json")
	validate   = validator.New(validator.WithRequiredStructEnabled())
)

// FieldError describes one struct-tag validation failure of a request body.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// BindError carries the failed rules of a decoded request body.
type BindError struct {
	Fields []FieldError
}

func (e *BindError) Error() string {
	return fmt.Sprintf("invalid request: %d field(s)", len(e.Fields))
}

// DecodeJSON reads a JSON body into dst and checks its `validate` struct tags.
// Returns ErrBadJSON for malformed input and *BindError for rule failures.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return Validate(dst)
}

// Validate runs the struct-tag rules on v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	be := &BindError{}
	for _, fe := range verrs {
		be.Fields = append(be.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return be
}

// WriteDecodeError maps a DecodeJSON error to a 400 response.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var be *BindError
	if errors.As(err, &be) {
		JSONError(w, http.StatusBadRequest, "invalid_request", be.Fields)
		return
	}
	JSONError(w, http.StatusBadRequest, ErrBadJSON.Error(), nil)
}
