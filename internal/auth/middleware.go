package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirana-pos/kirana/internal/platform/httpx"
	"github.com/kirana-pos/kirana/internal/shared"
)

// Middleware authenticates requests via the Authorization header and puts
// the resolved principal on the context.
func Middleware(store *TokenStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			principal, err := store.Resolve(r.Context(), token)
			if err != nil {
				if logger != nil {
					logger.Warn("token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), &principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
