package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom returns the verified caller identity stored by Auth.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

// Auth verifies the Bearer token on the request and makes the caller's
// identity available to the handler. Missing or invalid tokens end the
// request with 401.
func Auth(verifier application.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				rest.WriteError(w, application.NewUnauthorizedError(), logger)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Info("token rejected", "error", err)
				rest.WriteError(w, application.NewUnauthorizedError(), logger)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
