package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dan9191/community-forum/internal/utils"
	"github.com/sirupsen/logrus"
)

const jwtPrefix = "Bearer "

// RequireAdmin lets through requests carrying a valid admin bearer token or a
// logged in user for whom isAdmin returns true.
func RequireAdmin(jwtSecret []byte, isAdmin func(username string) bool, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" {
				if !strings.HasPrefix(header, jwtPrefix) {
					writeJSONError(w, http.StatusUnauthorized, "Authorization header must be a bearer token")
					return
				}
				claims, err := utils.ParseAdminToken(jwtSecret, strings.TrimPrefix(header, jwtPrefix))
				if err != nil {
					log.Warnf("Rejected admin token from %s: %v", r.RemoteAddr, err)
					writeJSONError(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				log.Infof("Admin request %s %s by token subject %s", r.Method, r.URL.Path, claims.Subject)
				next.ServeHTTP(w, r)
				return
			}

			sess := FromContext(r.Context())
			if sess.LoggedIn && isAdmin(sess.Username()) {
				log.Infof("Admin request %s %s by %s", r.Method, r.URL.Path, sess.Username())
				next.ServeHTTP(w, r)
				return
			}
			writeJSONError(w, http.StatusForbidden, "Admin access required")
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
