package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/validate"
)

const internalErrorMessage = "Internal server error"

type Struct any

// Response is the envelope for every API response
// Data is set on success, ErrorCode and ErrorMessage on failure
type Response struct {
	Success      bool              `json:"success"`
	Data         any               `json:"data"`
	ErrorCode    *string           `json:"errorCode"`
	ErrorMessage *string           `json:"errorMessage"`
	Fields       map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// JSONWithStatus renders successful response with data and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, Response{Success: true, Data: data}, code)
}

// Error renders failed response
// Status and code depend on the application error kind, unknown errors are rendered as internal ones
func Error(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindInternal {
		appErr = apperrors.ErrInternal
	}

	code := appErr.Code
	message := appErr.Error()
	if appErr.Kind == apperrors.KindInternal {
		message = internalErrorMessage
	}

	response := Response{
		Success:      false,
		ErrorCode:    &code,
		ErrorMessage: &message,
		Fields:       appErr.Fields,
	}

	jsonWithStatus(w, response, StatusOf(err))
}

// StatusOf returns HTTP status for the error
func StatusOf(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decodeError(err error) error {
	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.NewValidation(
			fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field),
			map[string]string{typeErr.Field: "Invalid data type"},
		)
	}

	return apperrors.NewValidation(fmt.Sprintf("Failed to parse JSON: %s", err.Error()), nil)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	value, err := Bind[T](r)
	if err != nil {
		Error(w, err)
		return value, err
	}

	return value, nil
}

// Bind is BindAndValidate that leaves rendering to the caller
func Bind[T Struct](r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		return value, decodeError(err)
	}

	err = validate.Struct(value)
	if err != nil {
		return value, err
	}

	return value, nil
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
