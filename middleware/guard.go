package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/varkis-sec/authgate"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by [Authenticate]. The
// second return is false on requests that never passed the gate.
func IdentityFromContext(ctx context.Context) (*authgate.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*authgate.Identity)
	return identity, ok
}

// Authenticate gates the wrapped handler behind Engine.Authenticate. Requests
// with a valid bearer token proceed with the resolved identity in the request
// context; everything else gets the same 401 regardless of why it failed, so
// responses never distinguish a bad signature from a deactivated account.
func Authenticate(engine *authgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authgate.WithClientIP(r.Context(), remoteIP(r))

			// Missing and malformed headers go through the engine as an
			// empty token so the rejection still reaches the audit stream.
			token, _ := bearerToken(r.Header.Get("Authorization"))
			identity, err := engine.Authenticate(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
