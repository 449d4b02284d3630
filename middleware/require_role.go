package middleware

import (
	"net/http"

	"github.com/varkis-sec/authgate"
)

// RequireRole allows the wrapped handler only for identities whose role is in
// the allowed set. It must run inside [Authenticate]: a request with no
// identity in context fails closed with 401, a wrong role gets 403.
func RequireRole(engine *authgate.Engine, allowed ...authgate.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if err := engine.Authorize(r.Context(), identity, allowed...); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
