// twinchat/middlewares/identity.go
package middlewares

import (
	"context"
	"net/http"
	"strings"

	"twinchat/twinchat/config"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const UserIDHeader = "X-User-ID"

// Identity puts the caller's backend user id on the request context. It is
// taken from the X-User-ID header, then the user_id query or form value, then
// the configured default. Requests without one pass through with an empty id;
// the handlers that need it reject them.
func Identity(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
			}
			if userID == "" && isForm(r) {
				userID = strings.TrimSpace(r.FormValue("user_id"))
			}
			if userID == "" {
				userID = cfg.UserID
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the id set by Identity, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
