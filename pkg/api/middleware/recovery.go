package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/raumwerk/raumwerk/pkg/logging"
)

// PanicRecovery converts handler panics into a 500 response. The panic
// value and stack trace go to the log, never to the client.
func PanicRecovery(logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panic",
						logging.String("method", r.Method),
						logging.Path(r.URL.Path),
						logging.Any("panic", v),
						logging.String("stack", string(debug.Stack())),
					)
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
