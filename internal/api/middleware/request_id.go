package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/chefmate/tastehub/internal/observability"
)

// HeaderRequestID carries the correlation id. Clients may supply their own;
// otherwise a uuidv7 is minted so ids sort by arrival time.
const HeaderRequestID = "X-Request-ID"

// RequestID is the outermost middleware: every request leaves it with a
// request id in the context and echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}

		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(r.Context(), observability.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
