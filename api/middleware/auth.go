package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/warung-pos/api/responses"
	pkgAuth "github.com/angelmondragon/warung-pos/pkg/auth"
	"github.com/angelmondragon/warung-pos/pkg/config"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/logger"
)

// Auth validates a bearer token issued by the identity service and seeds the
// request context with the cashier's identity. EventSource clients cannot set
// headers, so an access_token query parameter is accepted as a fallback.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			cashier := Cashier{ID: claims.UserID(), Name: claims.Name}
			ctx := WithCashier(r.Context(), cashier)
			if logg != nil {
				ctx = logg.WithUserID(ctx, cashier.ID)
				if cashier.Name != "" {
					ctx = logg.WithField(ctx, "cashier", cashier.Name)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
