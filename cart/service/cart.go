package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nandias/storefront/cart/cache"
	"github.com/nandias/storefront/cart/otel"
	"github.com/nandias/storefront/cart/pkg/request"
	"github.com/nandias/storefront/cart/pkg/response"
	"github.com/nandias/storefront/internal/constants"
	inErrors "github.com/nandias/storefront/internal/errors"
	inOtel "github.com/nandias/storefront/internal/otel"
	"github.com/nandias/storefront/internal/repository"
)

type CartService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	cache   *redis.Client
}

func NewCartService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	cache *redis.Client,
) CartService {
	return CartService{pool: pool, queries: queries, cache: cache}
}

// AddToCart merges the requested quantity into the user's cart. The cart row
// and the cart item are upserted inside one transaction, so concurrent adds
// for the same product accumulate instead of clobbering each other.
func (svc CartService) AddToCart(
	c context.Context,
	param request.AddCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddToCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService AddToCart").
		Str(constants.KEY_USER_ID, param.UserId.String()).
		Str(constants.KEY_PRODUCT_ID, param.ProductId.String()).
		Int32(constants.KEY_QUANTITY, param.Quantity).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding product").Logger()
	logger.Trace().Msg("finding product")
	span.AddEvent("finding product")
	if _, err := svc.queries.FindProductById(c, param.ProductId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf(
				"productId=%s with error=%w",
				param.ProductId.String(),
				inErrors.ErrProductNotFound,
			)
		} else {
			err = fmt.Errorf("failed to find product with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("found product")
	logger.Trace().Msg("found product")

	logger = logger.With().Str(constants.KEY_PROCESS, "starting transaction").Logger()
	logger.Trace().Msg("starting transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		err = fmt.Errorf("failed to start transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Error().Err(err).Msg("failed to rollback transaction")
		}
	}()
	logger.Trace().Msg("started transaction")

	queries := svc.queries.WithTx(tx)

	logger = logger.With().Str(constants.KEY_PROCESS, "upserting cart").Logger()
	logger.Trace().Msg("upserting cart")
	span.AddEvent("upserting cart")
	cart, err := queries.UpsertCart(c, param.UserId)
	if err != nil {
		err = fmt.Errorf("failed to upsert cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("upserted cart")
	logger.Trace().Msg("upserted cart")

	logger = logger.With().Str(constants.KEY_PROCESS, "upserting cart item").Logger()
	logger.Trace().Msg("upserting cart item")
	span.AddEvent("upserting cart item")
	item, err := queries.UpsertCartItem(c, repository.UpsertCartItemParams{
		CartID:    cart.UserID,
		ProductID: param.ProductId,
		Quantity:  param.Quantity,
	})
	if err != nil {
		err = fmt.Errorf("failed to upsert cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("upserted cart item")
	logger = logger.With().Any(constants.KEY_CART_ITEM, item).Logger()
	logger.Trace().Msg("upserted cart item")

	logger = logger.With().Str(constants.KEY_PROCESS, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err := tx.Commit(c); err != nil {
		err = fmt.Errorf("failed to commit transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("committed transaction")

	svc.invalidateCart(c, param.UserId)

	return svc.cartView(c, param.UserId)
}

// FindCartByUserId renders the cart view. A user who never added anything has
// no cart row, which is not an error, just an empty cart.
func (svc CartService) FindCartByUserId(
	c context.Context,
	userId uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCartByUserId")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_CARTS_BY_USER_ID, userId.String())
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService FindCartByUserId").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart in cache").Logger()
	logger.Trace().Msg("finding cart in cache")
	span.AddEvent("finding cart in cache")
	jsonCache, err := svc.cache.Get(c, cacheKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Msg("failed to find cart in cache")
	}
	if err == nil {
		cart := response.Cart{}
		if err := json.Unmarshal([]byte(jsonCache), &cart); err != nil {
			logger.Error().Err(err).Msg("failed to unmarshal cached cart")
		} else {
			span.AddEvent("found cart in cache")
			logger.Info().Msg("found cart in cache")
			return cart, nil
		}
	}
	logger.Trace().Msg("cart not found in cache")

	resCart, err := svc.cartView(c, userId)
	if err != nil {
		return response.Cart{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting cart to cache").Logger()
	logger.Trace().Msg("inserting cart to cache")
	jsonCart, err := json.Marshal(resCart)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal cart")
		return resCart, nil
	}
	if err := svc.cache.Set(c, cacheKey, jsonCart, time.Hour).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to insert cart to cache")
		return resCart, nil
	}
	logger.Info().Msg("inserted cart to cache")

	return resCart, nil
}

// cartView renders the cart straight from the database. Mutators return it
// without touching the cache, so a concurrent mutation can never be papered
// over by a stale repopulation; only FindCartByUserId caches the result.
func (svc CartService) cartView(
	c context.Context,
	userId uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService cartView")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService cartView").
		Str(constants.KEY_USER_ID, userId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart in database").Logger()
	logger.Trace().Msg("finding cart in database")
	span.AddEvent("finding cart in database")
	cart, err := svc.queries.FindCartByUserId(c, userId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Info().Msg("cart not found in database, returning empty cart")
			return response.Cart{
				UserID:    userId,
				CartItems: []response.CartItem{},
				Subtotal:  decimal.Zero,
			}, nil
		}
		err = fmt.Errorf("failed to find cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("found cart in database")
	logger.Trace().Msg("found cart in database")

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart items in database").Logger()
	logger.Trace().Msg("finding cart items in database")
	span.AddEvent("finding cart items in database")
	rows, err := svc.queries.FindCartItemsByCartId(c, cart.UserID)
	if err != nil {
		err = fmt.Errorf("failed to find cart items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("found cart items in database")
	logger.Trace().Msgf("found %d cart items in database", len(rows))

	cartItems := make([]response.CartItem, 0, len(rows))
	subtotal := decimal.Zero
	for _, row := range rows {
		item := row.Response()
		subtotal = subtotal.Add(item.LineTotal)
		cartItems = append(cartItems, item)
	}
	resCart := response.Cart{
		UserID:    cart.UserID,
		CartItems: cartItems,
		Subtotal:  subtotal,
		CreatedAt: cart.CreatedAt.Time,
	}
	logger.Info().Str(constants.KEY_SUBTOTAL, subtotal.String()).Msg("rendered cart view")

	return resCart, nil
}

// RemoveCartItem deletes one line from the user's cart. Items belonging to a
// different user's cart are rejected before anything is touched.
func (svc CartService) RemoveCartItem(
	c context.Context,
	param request.RemoveCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveCartItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService RemoveCartItem").
		Str(constants.KEY_USER_ID, param.UserId.String()).
		Str(constants.KEY_CART_ITEM_ID, param.CartItemId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart item").Logger()
	logger.Trace().Msg("finding cart item")
	span.AddEvent("finding cart item")
	item, err := svc.queries.FindCartItemById(c, param.CartItemId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf(
				"cartItemId=%s with error=%w",
				param.CartItemId.String(),
				inErrors.ErrCartItemNotFound,
			)
		} else {
			err = fmt.Errorf("failed to find cart item with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("found cart item")
	logger.Trace().Msg("found cart item")

	if item.CartID != param.UserId {
		err = fmt.Errorf(
			"cartItemId=%s with error=%w",
			param.CartItemId.String(),
			inErrors.ErrCartItemForbidden,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "removing cart item").Logger()
	logger.Trace().Msg("removing cart item")
	span.AddEvent("removing cart item")
	if _, err := svc.queries.DeleteCartItem(c, param.CartItemId); err != nil {
		err = fmt.Errorf("failed to remove cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	span.AddEvent("removed cart item")
	logger.Info().Msg("removed cart item")

	svc.invalidateCart(c, param.UserId)

	return svc.cartView(c, param.UserId)
}

func (svc CartService) invalidateCart(c context.Context, userId uuid.UUID) {
	c, span := otel.Tracer.Start(c, "CartService invalidateCart")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_CARTS_BY_USER_ID, userId.String())
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_PROCESS, "removing cart in cache").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger.Trace().Msg("removing cart in cache")
	if err := svc.cache.Del(c, cacheKey).Err(); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg("failed to remove cart in cache")
		return
	}
	logger.Trace().Msg("removed cart in cache")
}
