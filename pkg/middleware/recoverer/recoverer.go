// Package recoverer turns handler panics into the JSON server error envelope.
package recoverer

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/redirector/pkg/response"
)

// New recovers panics from next, records them on the request log entry and
// answers 500 with response.ServerError. http.ErrAbortHandler is re-panicked.
func New(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			httplog.LogEntrySetField(r.Context(), "err", slog.StringValue("panic recovered"))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
