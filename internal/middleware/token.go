package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/nandias/storefront/internal"
	"github.com/nandias/storefront/internal/constants"
	inErrors "github.com/nandias/storefront/internal/errors"
	inHttp "github.com/nandias/storefront/internal/http"
	"github.com/nandias/storefront/internal/repository"
)

// TokenAuth gates the /apis surface with persisted opaque tokens,
// sent as "Authorization: Token <key>".
func TokenAuth(queries *repository.Queries) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(constants.KEY_TAG, "middleware TokenAuth").
				Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrEmptyAuth.Error(),
				})
				return
			}

			key := strings.TrimPrefix(strings.TrimPrefix(authorization, "Token "), "token ")
			apiToken, err := queries.FindApiTokenByToken(c, key)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					err = inErrors.ErrTokenInvalid
				}
				logger.Error().Err(err).Msg(inErrors.ErrTokenInvalid.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrTokenInvalid.Error(),
				})
				return
			}

			c = internal.AttachUserId(c, apiToken.UserID)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
