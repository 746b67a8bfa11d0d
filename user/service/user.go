package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nandias/storefront/internal/cache"
	"github.com/nandias/storefront/internal/config"
	"github.com/nandias/storefront/internal/constants"
	inErrors "github.com/nandias/storefront/internal/errors"
	inOtel "github.com/nandias/storefront/internal/otel"
	"github.com/nandias/storefront/internal/repository"
	"github.com/nandias/storefront/user/otel"
	"github.com/nandias/storefront/user/pkg/request"
	"github.com/nandias/storefront/user/pkg/response"
)

const sessionDuration = 30 * time.Minute

type UserService struct {
	queries  *repository.Queries
	sessions *redis.Client
	config   config.Application
}

func NewUserService(
	queries *repository.Queries,
	sessions *redis.Client,
	config config.Application,
) UserService {
	return UserService{queries: queries, sessions: sessions, config: config}
}

// Register creates the account and issues its API token in the same breath,
// so a fresh user can call the token-authenticated API right away.
func (svc UserService) Register(
	c context.Context,
	param request.Register,
) (response.Register, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Register").
		Str(constants.KEY_USERNAME, param.Username).
		Str(constants.KEY_EMAIL, param.Email).
		Logger()

	if param.Password != param.Password2 {
		err := inErrors.ErrPasswordMismatch
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "hashing password").Logger()
	logger.Trace().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed to hash password with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger.Trace().Msg("hashed password")

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting user").Logger()
	logger.Trace().Msg("inserting user")
	span.AddEvent("inserting user")
	user, err := svc.queries.InsertUser(c, repository.InsertUserParams{
		Username: param.Username,
		Email:    param.Email,
		Password: string(hashed),
	})
	if err != nil {
		pgErr := &pgconn.PgError{}
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			pgErr.ConstraintName == "users_username_key":
			err = fmt.Errorf("username=%s with error=%w", param.Username, inErrors.ErrUsernameTaken)
		case errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			pgErr.ConstraintName == "users_email_key":
			err = fmt.Errorf("email=%s with error=%w", param.Email, inErrors.ErrEmailTaken)
		default:
			err = fmt.Errorf("failed to insert user with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	span.AddEvent("inserted user")
	logger = logger.With().Str(constants.KEY_USER_ID, user.ID.String()).Logger()
	logger.Info().Msg("inserted user")

	logger = logger.With().Str(constants.KEY_PROCESS, "issuing api token").Logger()
	logger.Trace().Msg("issuing api token")
	key := make([]byte, 20)
	if _, err := rand.Read(key); err != nil {
		err = fmt.Errorf("failed to generate api token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	apiToken, err := svc.queries.UpsertApiToken(c, repository.UpsertApiTokenParams{
		UserID: user.ID,
		Token:  hex.EncodeToString(key),
	})
	if err != nil {
		err = fmt.Errorf("failed to insert api token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger.Info().Msg("issued api token")

	return response.Register{User: user.Response(), ApiToken: apiToken.Token}, nil
}

// Login verifies the credentials and mints a session token.
func (svc UserService) Login(c context.Context, param request.Login) (string, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Login").
		Str(constants.KEY_USERNAME, param.Username).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding user").Logger()
	logger.Trace().Msg("finding user")
	span.AddEvent("finding user")
	user, err := svc.queries.FindUserByUsername(c, param.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf(
				"username=%s with error=%w",
				param.Username,
				inErrors.ErrUserNotFound,
			)
		} else {
			err = fmt.Errorf("failed to find user with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	span.AddEvent("found user")
	logger.Trace().Msg("found user")

	logger = logger.With().Str(constants.KEY_PROCESS, "verifying password").Logger()
	logger.Trace().Msg("verifying password")
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		err = fmt.Errorf(
			"username=%s with error=%w",
			param.Username,
			inErrors.ErrWrongPassword,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("verified password")

	logger = logger.With().Str(constants.KEY_PROCESS, "signing session token").Logger()
	logger.Trace().Msg("signing session token")
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    constants.APP_STOREFRONT,
		Subject:   user.ID.String(),
		Audience:  jwt.ClaimStrings{constants.AUDIENCE_USER},
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionDuration)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString([]byte(svc.config.SecretKey))
	if err != nil {
		err = fmt.Errorf("failed to sign session token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("signed session token")

	return signed, nil
}

// Logout revokes the session token until its natural expiry.
func (svc UserService) Logout(c context.Context, token *jwt.Token) error {
	c, span := otel.Tracer.Start(c, "UserService Logout")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_SESSION_REVOKED, token.Raw)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Logout").
		Str(constants.KEY_PROCESS, "revoking session token").
		Logger()

	expiry, err := token.Claims.GetExpirationTime()
	if err != nil {
		err = fmt.Errorf("failed to get token expiry with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	ttl := time.Until(expiry.Time)
	if ttl <= 0 {
		logger.Info().Msg("session token already expired")
		return nil
	}

	logger.Trace().Msg("revoking session token")
	if err := svc.sessions.Set(c, cacheKey, "revoked", ttl).Err(); err != nil {
		err = fmt.Errorf("failed to revoke session token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("revoked session token")

	return nil
}

// ObtainApiToken is the API-side login. It verifies the credentials and hands
// back the token issued at registration.
func (svc UserService) ObtainApiToken(
	c context.Context,
	param request.Login,
) (string, error) {
	c, span := otel.Tracer.Start(c, "UserService ObtainApiToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService ObtainApiToken").
		Str(constants.KEY_USERNAME, param.Username).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding user").Logger()
	logger.Trace().Msg("finding user")
	user, err := svc.queries.FindUserByUsername(c, param.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf(
				"username=%s with error=%w",
				param.Username,
				inErrors.ErrUserNotFound,
			)
		} else {
			err = fmt.Errorf("failed to find user with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("found user")

	logger = logger.With().Str(constants.KEY_PROCESS, "verifying password").Logger()
	logger.Trace().Msg("verifying password")
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		err = fmt.Errorf(
			"username=%s with error=%w",
			param.Username,
			inErrors.ErrWrongPassword,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("verified password")

	logger = logger.With().Str(constants.KEY_PROCESS, "finding api token").Logger()
	logger.Trace().Msg("finding api token")
	key := make([]byte, 20)
	if _, err := rand.Read(key); err != nil {
		err = fmt.Errorf("failed to generate api token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	// the upsert keeps the existing token when one was already issued
	apiToken, err := svc.queries.UpsertApiToken(c, repository.UpsertApiTokenParams{
		UserID: user.ID,
		Token:  hex.EncodeToString(key),
	})
	if err != nil {
		err = fmt.Errorf("failed to find api token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("found api token")

	return apiToken.Token, nil
}
