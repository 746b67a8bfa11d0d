package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nandias/storefront/internal"
	"github.com/nandias/storefront/internal/cache"
	"github.com/nandias/storefront/internal/config"
	"github.com/nandias/storefront/internal/constants"
	inErrors "github.com/nandias/storefront/internal/errors"
	inHttp "github.com/nandias/storefront/internal/http"
)

// Auth gates the session routes. It verifies the bearer token, rejects
// tokens revoked by logout, and attaches the parsed token to the request
// context so handlers can resolve the authenticated user explicitly.
func Auth(cfg config.Application, sessions *redis.Client) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(constants.KEY_TAG, "middleware Auth").
				Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrEmptyAuth.Error(),
					"next":       r.URL.Path,
				})
				return
			}

			token := strings.TrimPrefix(strings.TrimPrefix(authorization, "Bearer "), "bearer ")
			jwtToken, err := internal.VerifyToken(c, token, cfg)
			if err != nil {
				logger.Error().Err(err).Msg(inErrors.ErrTokenInvalid.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrTokenInvalid.Error(),
					"next":       r.URL.Path,
				})
				return
			}

			revoked, err := sessions.Exists(c, fmt.Sprintf(cache.KEY_SESSION_REVOKED, token)).
				Result()
			if err == nil && revoked > 0 {
				logger.Error().Err(inErrors.ErrTokenRevoked).Msg(inErrors.ErrTokenRevoked.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrTokenRevoked.Error(),
					"next":       r.URL.Path,
				})
				return
			}

			c = internal.AttachJwtToken(c, jwtToken)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
