package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/chefmate/tastehub/internal/api/response"
)

// BodyLimitRecorder counts requests rejected for exceeding the body limit.
// Nil disables recording.
type BodyLimitRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// MaxBody caps request bodies at maxBytes and turns overruns into a uniform
// 413, replacing whatever decode error the handler produced. maxBytes <= 0
// disables the cap.
//
// Handlers see the overrun as a read error mid-decode and typically answer
// 400, so responses for body-carrying methods are buffered until the handler
// returns and discarded when the limit tripped. Bodyless methods stream
// straight through.
func MaxBody(maxBytes int64, recorder BodyLimitRecorder) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := &limitTrackingReader{
				ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes),
			}
			r.Body = body

			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)

				return
			}

			buffered := &bufferedResponse{ResponseWriter: w}
			next.ServeHTTP(buffered, r)

			if body.limitExceeded {
				if recorder != nil {
					recorder.RecordRequestBodyTooLarge(r.Context())
				}

				response.RespondError(w, http.StatusRequestEntityTooLarge,
					"Request Entity Too Large", "request body exceeds maximum allowed size")

				return
			}

			buffered.flush()
		})
	}
}

// limitTrackingReader remembers whether MaxBytesReader cut the body off.
type limitTrackingReader struct {
	io.ReadCloser

	limitExceeded bool
}

func (r *limitTrackingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		r.limitExceeded = true
	}

	return n, err
}

// bufferedResponse holds status and body until flush, so the middleware can
// still substitute its own response after the handler ran.
type bufferedResponse struct {
	http.ResponseWriter

	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(code int) {
	b.status = code
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) flush() {
	if b.status != 0 {
		b.ResponseWriter.WriteHeader(b.status)
	}

	_, _ = b.body.WriteTo(b.ResponseWriter)
}
