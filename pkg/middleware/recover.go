package middleware

import (
	"fmt"
	"net/http"

	"krib-booking/pkg/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recover turns a handler panic into a 500 carrying the request id, so an
// agent can quote it back when reporting the failure.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
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

				reqID := chimw.GetReqID(r.Context())
				logger.Error("Panic recovered",
					zap.String("request_id", reqID),
					zap.String("panic", fmt.Sprint(rec)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)

				var details any
				if reqID != "" {
					details = map[string]string{"request_id": reqID}
				}
				utils.ResponseJSON(w, http.StatusInternalServerError, false, "Internal server error", nil, details)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
