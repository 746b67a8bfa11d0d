package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nandias/storefront/internal/constants"
	inErrors "github.com/nandias/storefront/internal/errors"
	inOtel "github.com/nandias/storefront/internal/otel"
	"github.com/nandias/storefront/internal/repository"
	"github.com/nandias/storefront/product/cache"
	"github.com/nandias/storefront/product/otel"
	"github.com/nandias/storefront/product/pkg/request"
	"github.com/nandias/storefront/product/pkg/response"
)

type ProductService struct {
	queries *repository.Queries
	cache   *redis.Client
}

func NewProductService(queries *repository.Queries, cache *redis.Client) ProductService {
	return ProductService{queries: queries, cache: cache}
}

func (svc ProductService) InsertProduct(
	c context.Context,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService InsertProduct").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting product to database").Logger()
	logger.Trace().Msg("inserting product to database")
	span.AddEvent("inserting product to database")
	product, err := svc.queries.InsertProduct(
		c,
		repository.InsertProductParams{
			Name:        param.ProductName,
			Description: pgtype.Text{String: param.Description, Valid: param.Description != ""},
			Price: pgtype.Numeric{
				Exp:              param.Price.Exponent(),
				InfinityModifier: pgtype.Finite,
				Int:              param.Price.Coefficient(),
				NaN:              false,
				Valid:            true,
			},
		},
	)
	if err != nil {
		err = fmt.Errorf("failed to insert product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	span.AddEvent("inserted product to database")
	logger = logger.With().Any(constants.KEY_PRODUCT, product).Logger()
	logger.Info().Msg("inserted product to database")

	svc.cacheProduct(c, product)

	return product.Response(), nil
}

func (svc ProductService) GetProducts(c context.Context) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService GetProducts").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding products in database").Logger()
	logger.Trace().Msg("finding products in database")
	span.AddEvent("finding products in database")
	products, err := svc.queries.FindProducts(c)
	if err != nil {
		err = fmt.Errorf("failed to get products from database with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	span.AddEvent("found products in database")
	logger.Info().Msgf("found %d products in database", len(products))

	responses := make([]response.Product, 0, len(products))
	for _, product := range products {
		responses = append(responses, product.Response())
	}
	return responses, nil
}

// likeEscaper quotes LIKE metacharacters so a query containing them matches
// the literal characters instead of acting as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchProducts matches the product name as a case-insensitive substring.
// A blank query returns an empty result set, not the full catalog.
func (svc ProductService) SearchProducts(
	c context.Context,
	query string,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService SearchProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService SearchProducts").
		Str(constants.KEY_SEARCH_QUERY, query).
		Logger()

	if query == "" {
		logger.Info().Msg("empty search query, returning empty result")
		span.AddEvent("empty search query")
		return []response.Product{}, nil
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "searching products in database").Logger()
	logger.Trace().Msg("searching products in database")
	span.AddEvent("searching products in database")
	products, err := svc.queries.SearchProductsByName(c, likeEscaper.Replace(query))
	if err != nil {
		err = fmt.Errorf("failed searching products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	span.AddEvent("searched products in database")
	logger.Info().Msgf("found %d products matching query", len(products))

	responses := make([]response.Product, 0, len(products))
	for _, product := range products {
		responses = append(responses, product.Response())
	}
	return responses, nil
}

func (svc ProductService) FindProductById(
	c context.Context,
	id uuid.UUID,
) (product response.Product, err error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductById")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_PRODUCTS, id.String())
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService FindProductById").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding product in cache").Logger()
	logger.Trace().Msg("finding product in cache")
	jsonCache, err := svc.cache.Get(c, cacheKey).Result()
	if err != nil || jsonCache == "" {
		logger.Info().Msg("product is not in cache")

		logger = logger.With().Str(constants.KEY_PROCESS, "finding product in database").Logger()
		logger.Trace().Msg("finding product in database")
		span.AddEvent("finding product in database")
		row, err := svc.queries.FindProductById(c, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = fmt.Errorf("productId=%s with error=%w", id.String(), inErrors.ErrProductNotFound)
			} else {
				err = fmt.Errorf("failed to find product in database with error=%w", err)
			}
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Product{}, err
		}
		span.AddEvent("found product in database")
		logger = logger.With().Any(constants.KEY_PRODUCT, row).Logger()
		logger.Info().Msg("found product in database")

		svc.cacheProduct(c, row)
		return row.Response(), nil
	}
	span.AddEvent("found product in cache")
	logger = logger.With().Str(constants.KEY_JSON_CACHE, jsonCache).Logger()
	logger.Debug().Msg("found product in cache")

	logger.Trace().Msg("unmarshaling product from cache")
	err = json.Unmarshal([]byte(jsonCache), &product)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal jsonCache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("found product in cache")

	return product, nil
}

func (svc ProductService) UpdateProduct(
	c context.Context,
	id uuid.UUID,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService UpdateProduct")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_PRODUCTS, id.String())
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService UpdateProduct").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "updating product in database").Logger()
	logger.Trace().Msg("updating product in database")
	span.AddEvent("updating product in database")
	product, err := svc.queries.UpdateProduct(c, repository.UpdateProductParams{
		Name:        param.ProductName,
		Description: pgtype.Text{String: param.Description, Valid: param.Description != ""},
		Price: pgtype.Numeric{
			Exp:              param.Price.Exponent(),
			InfinityModifier: pgtype.Finite,
			Int:              param.Price.Coefficient(),
			NaN:              false,
			Valid:            true,
		},
		ID: id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("productId=%s with error=%w", id.String(), inErrors.ErrProductNotFound)
		} else {
			err = fmt.Errorf("failed to update product with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	span.AddEvent("updated product in database")
	logger = logger.With().Any(constants.KEY_PRODUCT, product).Logger()
	logger.Info().Msg("updated product in database")

	svc.cacheProduct(c, product)

	return product.Response(), nil
}

func (svc ProductService) RemoveProduct(
	c context.Context,
	id uuid.UUID,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService RemoveProduct")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_PRODUCTS, id.String())
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService RemoveProduct").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "removing product in cache").Logger()
	logger.Trace().Msg("removing product in cache")
	span.AddEvent("removing product in cache")
	err := svc.cache.Del(c, cacheKey).Err()
	if err != nil {
		err = fmt.Errorf("failed to remove product in cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	span.AddEvent("removed product in cache")
	logger.Info().Msg("removed product in cache")

	logger = logger.With().Str(constants.KEY_PROCESS, "removing product in database").Logger()
	logger.Trace().Msg("removing product in database")
	span.AddEvent("removing product in database")
	product, err := svc.queries.DeleteProduct(c, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("productId=%s with error=%w", id.String(), inErrors.ErrProductNotFound)
		} else {
			err = fmt.Errorf("failed to remove product in database with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	span.AddEvent("removed product in database")
	logger.Info().Msg("removed product in database")

	// the delete cascades into cart_items, so every cached cart view is suspect
	logger = logger.With().Str(constants.KEY_PROCESS, "invalidating cart caches").Logger()
	logger.Trace().Msg("invalidating cart caches")
	iter := svc.cache.Scan(c, 0, "carts:*", 0).Iterator()
	for iter.Next(c) {
		if err := svc.cache.Del(c, iter.Val()).Err(); err != nil {
			logger.Error().Err(err).Msgf("failed invalidating cart cache key=%s", iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		logger.Error().Err(err).Msg("failed scanning cart cache keys")
	}
	logger.Info().Msg("invalidated cart caches")

	return product.Response(), nil
}

func (svc ProductService) cacheProduct(c context.Context, product repository.Product) {
	c, span := otel.Tracer.Start(c, "ProductService cacheProduct")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KEY_PRODUCTS, product.ID.String())
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_PROCESS, "inserting product to cache").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger.Trace().Msg("inserting product to cache")
	jsonProduct, err := json.Marshal(product.Response())
	if err != nil {
		logger.Error().Err(err).Msgf("failed marshaling product with error=%s", err.Error())
		return
	}
	err = svc.cache.Set(c, cacheKey, jsonProduct, time.Hour*1).Err()
	if err != nil {
		logger.Error().Err(err).Msgf("failed inserting product to cache with error=%s", err.Error())
		return
	}
	logger.Info().Msg("inserted product to cache")
}
