package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	cartCache "github.com/nandias/storefront/cart/cache"
	inErrors "github.com/nandias/storefront/internal/errors"
	"github.com/nandias/storefront/product/cache"
	"github.com/nandias/storefront/product/pkg/request"
)

func testContext() context.Context {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}).
		WithContext(context.Background())
}

func seedPaths() []string {
	return []string{
		filepath.Join("seed", "users.seed.sql"),
		filepath.Join("seed", "products.seed.sql"),
	}
}

func TestGetProducts(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	products, err := productService.GetProducts(c)
	assert.NoError(t, err, "listing products should succeed")
	assert.Len(t, products, 2, "all seeded products should be listed")
}

func TestSearchProductsBlankQuery(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	products, err := productService.SearchProducts(c, "")
	assert.NoError(t, err, "blank search should succeed")
	assert.Empty(t, products, "blank search should return no products")
}

func TestSearchProductsCaseInsensitive(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	products, err := productService.SearchProducts(c, "PRO")
	assert.NoError(t, err, "search should succeed")
	assert.Len(t, products, 1, "search should match the product name substring")
	assert.Equal(t, "Product A", products[0].ProductName, "match should be case insensitive")

	products, err = productService.SearchProducts(c, "cutter")
	assert.NoError(t, err, "search should succeed")
	assert.Len(t, products, 1, "search should match anywhere in the name")
	assert.Equal(t, "Bolt Cutter", products[0].ProductName)

	products, err = productService.SearchProducts(c, "no-such-product")
	assert.NoError(t, err, "search should succeed")
	assert.Empty(t, products, "unmatched search should return no products")
}

func TestSearchProductsLiteralWildcards(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	for _, query := range []string{"%", "_", `\`} {
		products, err := productService.SearchProducts(c, query)
		assert.NoError(t, err, "search should succeed")
		assert.Emptyf(
			t,
			products,
			"%q should match only names containing it literally",
			query,
		)
	}

	inserted, err := productService.InsertProduct(c, request.Product{
		ProductName: "100% Cotton Shirt",
		Price:       decimal.RequireFromString("15.00"),
	})
	assert.NoError(t, err, "insert should succeed")

	products, err := productService.SearchProducts(c, "%")
	assert.NoError(t, err, "search should succeed")
	assert.Len(t, products, 1, "a literal percent should match only names containing one")
	assert.Equal(t, inserted.ID, products[0].ID)
}

func TestInsertProduct(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	inserted, err := productService.InsertProduct(c, request.Product{
		ProductName: "Wrench",
		Description: "adjustable",
		Price:       decimal.RequireFromString("10.50"),
	})
	assert.NoError(t, err, "insert should succeed")
	assert.Equal(t, "Wrench", inserted.ProductName)
	assert.Equal(t, "10.50", inserted.Price.StringFixed(2), "price should be preserved")

	found, err := productService.FindProductById(c, inserted.ID)
	assert.NoError(t, err, "lookup should succeed")
	assert.Equal(t, inserted.ID, found.ID)
	assert.Equal(t, "10.50", found.Price.StringFixed(2), "price should survive the round trip")
}

func TestFindProductByIdNotFound(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	_, err := productService.FindProductById(c, uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound, "unknown product should be rejected")
}

func TestUpdateProduct(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, _, productService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	products := seedProducts(t)

	updated, err := productService.UpdateProduct(c, products[0].ID, request.Product{
		ProductName: "Product A v2",
		Description: "revised",
		Price:       decimal.RequireFromString("11.99"),
	})
	assert.NoError(t, err, "update should succeed")
	assert.Equal(t, "Product A v2", updated.ProductName)
	assert.Equal(t, "11.99", updated.Price.StringFixed(2))

	_, err = productService.UpdateProduct(c, uuid.New(), request.Product{
		ProductName: "ghost",
		Price:       decimal.RequireFromString("1.00"),
	})
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound, "unknown product should be rejected")
}

func TestRemoveProductCascadesIntoCarts(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, queries, productService := setup(t)(c, seedPaths()...)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	users := seedUsers(t)
	products := seedProducts(t)

	_, err := pool.Exec(c, "INSERT INTO carts (user_id) VALUES ($1)", users[0].ID)
	assert.NoError(t, err, "cart seed should succeed")
	_, err = pool.Exec(
		c,
		"INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, 3)",
		users[0].ID,
		products[0].ID,
	)
	assert.NoError(t, err, "cart item seed should succeed")

	cartKey := fmt.Sprintf(cartCache.KEY_CARTS_BY_USER_ID, users[0].ID.String())
	err = redisClient.Set(c, cartKey, "stale cart view", time.Hour).Err()
	assert.NoError(t, err, "warming the cart cache should succeed")

	removed, err := productService.RemoveProduct(c, products[0].ID)
	assert.NoError(t, err, "remove should succeed")
	assert.Equal(t, products[0].ID, removed.ID)

	items, err := queries.FindCartItemsByCartId(c, users[0].ID)
	assert.NoError(t, err, "cart item lookup should succeed")
	assert.Empty(t, items, "the delete should cascade into cart items")

	exists, err := redisClient.Exists(c, cartKey).Result()
	assert.NoError(t, err, "cache lookup should succeed")
	assert.EqualValues(t, 0, exists, "stale cart views should be invalidated")

	productKey := fmt.Sprintf(cache.KEY_PRODUCTS, products[0].ID.String())
	exists, err = redisClient.Exists(c, productKey).Result()
	assert.NoError(t, err, "cache lookup should succeed")
	assert.EqualValues(t, 0, exists, "the product cache entry should be removed")

	_, err = productService.RemoveProduct(c, products[0].ID)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound, "removing twice should be rejected")
}
