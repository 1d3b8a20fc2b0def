// internal/middleware/admin.go
package middleware

import (
	"net/http"

	"github.com/jason-s-yu/impostor/internal/auth"
	"github.com/sirupsen/logrus"
)

// RequireAdmin rejects requests without a valid admin bearer token. A nil issuer means admin
// access is not configured, and every request gets a 404.
func RequireAdmin(issuer *auth.Issuer, logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if issuer == nil {
				http.NotFound(w, r)
				return
			}
			token, err := auth.BearerToken(r)
			if err != nil {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			sub, err := issuer.AuthenticateJWT(token)
			if err != nil {
				logger.WithField("remote", r.RemoteAddr).Warnf("admin auth failed: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			logger.WithFields(logrus.Fields{"sub": sub, "path": r.URL.Path}).Debug("admin request")
			next.ServeHTTP(w, r)
		})
	}
}
