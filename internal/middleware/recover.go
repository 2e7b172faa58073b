package middleware

import (
	"net/http"

	pkgerrors "github.com/pkg/errors"

	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

// Recoverer turns a handler panic into the JSON error envelope, logged with
// the route, method and stack like any other request error.
func Recoverer(responder *utils.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := pkgerrors.Errorf("panic: %v", rec)
				if r.Header.Get("Connection") == "Upgrade" {
					// the connection was hijacked; only log it
					responder.Log(r, err)
					return
				}
				responder.Respond(w, r, utils.Internal("internal server error", err))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
