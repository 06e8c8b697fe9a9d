package httpmw

import (
	"net/http"
	"strings"

	"github.com/cwrk-planet/meeting-service/internal/auth"
)

// Verifier turns a bearer token into the caller's opaque identity.
type Verifier interface {
	Verify(token string) (string, error)
}

// Authenticate puts the verified identity into the request context.
// Requests without credentials pass through anonymously so that read
// operations can degrade; a malformed or invalid token is rejected.
// Browsers cannot set headers on websocket upgrades, so ?access_token= is
// accepted as well.
func Authenticate(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); h != "" {
				tok, err := auth.BearerToken(h)
				if err != nil {
					writeUnauthorized(w, "missing bearer token")
					return
				}
				raw = tok
			} else {
				raw = strings.TrimSpace(r.URL.Query().Get("access_token"))
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := v.Verify(raw)
			if err != nil {
				L(r.Context()).Warn("auth: token rejected", "err", err)
				writeUnauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","kind":"unauthenticated"}`))
}
