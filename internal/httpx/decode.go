package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

// MaxRequestBodySize bounds create and update bodies. A link body is an id
// and a URL, so anything past this is rejected rather than buffered.
const MaxRequestBodySize = 16 << 10

// DecodeJSON reads exactly one JSON object from r into a T. Every failure is
// an errx.Invalid whose innermost message can be shown to the client.
//
// A missing Content-Type is accepted; any other media type than
// application/json is not. Unknown fields and trailing data are rejected.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	const op = "httpx.DecodeJSON"
	var v T

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return v, errx.E(op, errx.Invalid, fmt.Errorf("unsupported content type %q", ct))
		}
	}

	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	defer func() {
		_ = body.Close()
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, errx.E(op, errx.Invalid, describeDecodeError(err))
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var zero T
		return zero, errx.E(op, errx.Invalid, errors.New("request body must hold a single JSON object"))
	}

	return v, nil
}

// describeDecodeError turns a decoder failure into a client-safe message.
func describeDecodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("request body is truncated")
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("field %q must be a %s", typeErr.Field, typeErr.Type)
	default:
		// json reports unknown fields as a plain error: `json: unknown field "x"`.
		return fmt.Errorf("invalid request body: %s", trimJSONPrefix(err.Error()))
	}
}

func trimJSONPrefix(msg string) string {
	const prefix = "json: "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
