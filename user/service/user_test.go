package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/nandias/storefront/internal"
	"github.com/nandias/storefront/internal/cache"
	inErrors "github.com/nandias/storefront/internal/errors"
	"github.com/nandias/storefront/user/pkg/request"
)

func testContext() context.Context {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}).
		WithContext(context.Background())
}

func TestRegister(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	registered, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "register should succeed")
	assert.Equal(t, "carol", registered.User.Username)
	assert.Equal(t, "carol@example.com", registered.User.Email)
	assert.Len(t, registered.ApiToken, 40, "registration should issue an api token")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, queries, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "different-password",
	})
	assert.ErrorIs(t, err, inErrors.ErrPasswordMismatch, "mismatched passwords should be rejected")

	_, err = queries.FindUserByUsername(c, "carol")
	assert.Error(t, err, "no user should be created on mismatch")
}

func TestRegisterDuplicate(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "register should succeed")

	_, err = userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "other@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.ErrorIs(t, err, inErrors.ErrUsernameTaken, "a taken username should be rejected")

	_, err = userService.Register(c, request.Register{
		Username:  "carol2",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.ErrorIs(t, err, inErrors.ErrEmailTaken, "a taken email should be rejected")
}

func TestLogin(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	registered, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "register should succeed")

	token, err := userService.Login(c, request.Login{
		Username: "carol",
		Password: "s3cret-password",
	})
	assert.NoError(t, err, "login should succeed")

	jwtToken, err := internal.VerifyToken(c, token, testApplicationConfig())
	assert.NoError(t, err, "the session token should verify")
	subject, err := jwtToken.Claims.GetSubject()
	assert.NoError(t, err, "the session token should carry a subject")
	assert.Equal(t, registered.User.ID.String(), subject, "the subject should be the user id")
}

func TestLoginWrongPassword(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "register should succeed")

	_, err = userService.Login(c, request.Login{
		Username: "carol",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, inErrors.ErrWrongPassword, "wrong password should be rejected")

	_, err = userService.Login(c, request.Login{
		Username: "nobody",
		Password: "s3cret-password",
	})
	assert.ErrorIs(t, err, inErrors.ErrUserNotFound, "unknown username should be rejected")
}

func TestLogoutRevokesToken(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "register should succeed")

	token, err := userService.Login(c, request.Login{
		Username: "carol",
		Password: "s3cret-password",
	})
	assert.NoError(t, err, "login should succeed")

	jwtToken, err := internal.VerifyToken(c, token, testApplicationConfig())
	assert.NoError(t, err, "the session token should verify")

	err = userService.Logout(c, jwtToken)
	assert.NoError(t, err, "logout should succeed")

	revoked, err := redisClient.Exists(c, fmt.Sprintf(cache.KEY_SESSION_REVOKED, token)).Result()
	assert.NoError(t, err, "revocation lookup should succeed")
	assert.EqualValues(t, 1, revoked, "the token should be revoked until expiry")
}

func TestObtainApiToken(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, userService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	registered, err := userService.Register(c, request.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "register should succeed")

	token, err := userService.ObtainApiToken(c, request.Login{
		Username: "carol",
		Password: "s3cret-password",
	})
	assert.NoError(t, err, "obtaining the api token should succeed")
	assert.Equal(t, registered.ApiToken, token, "the token issued at registration should be returned")

	_, err = userService.ObtainApiToken(c, request.Login{
		Username: "carol",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, inErrors.ErrWrongPassword, "wrong password should be rejected")
}
