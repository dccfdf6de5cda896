package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-sod/powersod/internal/logging"
)

const MaxBodyBytes = 64 * 1024 * 1024

type errorBody struct {
	Error string `json:"error"`
}

// DecodeJSON checks the method and content type of r and decodes its body into v.
// On failure the response has already been written and false is returned.
func DecodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		RespError(ctx, w, http.StatusMethodNotAllowed, "method %v is not allowed", r.Method)
		return false
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		RespError(ctx, w, http.StatusUnsupportedMediaType, "content-type is not application/json")
		return false
	}
	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		DecodeErr(ctx, w, err)
		return false
	}
	return true
}

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, "malformed json at position %v", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, "malformed json")
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, "invalid value %v at position %v", unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, "unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, "body must not be empty")
	case err.Error() == "http: request body too large":
		RespError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		// methods and enums reject unknown names while decoding
		RespBadRequest(ctx, w, "%v", err)
	}
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	RespError(ctx, w, http.StatusBadRequest, format, args...)
}

func RespNotFound(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	RespError(ctx, w, http.StatusNotFound, format, args...)
}

func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	RespJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: fmt.Sprintf(format, args...)})
}

// RespError writes {"error": msg} with the given status.
func RespError(ctx context.Context, w http.ResponseWriter, status int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	RespJSON(ctx, w, status, errorBody{Error: msg})
}

func RespJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(ctx).Errorf("unable encode response: %v", err)
	}
}
