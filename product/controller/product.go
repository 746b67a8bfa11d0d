package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nandias/storefront/internal/constants"
	inErrors "github.com/nandias/storefront/internal/errors"
	inHttp "github.com/nandias/storefront/internal/http"
	inOtel "github.com/nandias/storefront/internal/otel"
	"github.com/nandias/storefront/internal/validate"
	"github.com/nandias/storefront/product/otel"
	"github.com/nandias/storefront/product/service"
	"github.com/nandias/storefront/product/pkg/request"
)

type ProductController struct {
	service   *service.ProductService
	validator *validator.Validate
}

// AttachProductController wires the storefront pages: home, search and the
// product management routes, all rendered as JSON.
func AttachProductController(router *mux.Router, service *service.ProductService) {
	controller := ProductController{service: service, validator: validate.New()}

	router.HandleFunc("/", controller.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/search", controller.SearchProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/list", controller.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/add", controller.InsertProductForm).Methods(http.MethodPost)
}

// AttachProductApiController wires the token-authenticated JSON API.
func AttachProductApiController(router *mux.Router, service *service.ProductService) {
	controller := ProductController{service: service, validator: validate.New()}

	router.HandleFunc("", controller.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/add", controller.InsertProduct).Methods(http.MethodPost)
	router.HandleFunc("/{productId}/update", controller.UpdateProduct).Methods(http.MethodPut)
	router.HandleFunc("/{productId}/delete", controller.RemoveProduct).Methods(http.MethodDelete)
}

func (p ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController GetProducts").
		Str(constants.KEY_PROCESS, "finding products").
		Logger()

	logger.Info().Msg("finding products")
	c = logger.WithContext(c)
	products, err := p.service.GetProducts(c)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msgf("found %d products", len(products))

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "products found",
		"data": map[string]interface{}{
			"products": products,
		},
	})
}

func (p ProductController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController SearchProducts")
	defer span.End()

	query := r.URL.Query().Get("q")
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController SearchProducts").
		Str(constants.KEY_SEARCH_QUERY, query).
		Str(constants.KEY_PROCESS, "searching products").
		Logger()

	logger.Info().Msg("searching products")
	c = logger.WithContext(c)
	products, err := p.service.SearchProducts(c, query)
	if err != nil {
		err = fmt.Errorf("failed searching products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msgf("found %d products", len(products))

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "products found",
		"data": map[string]interface{}{
			"search":   query,
			"products": products,
		},
	})
}

// InsertProductForm handles the storefront add form, posted urlencoded.
func (p ProductController) InsertProductForm(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProductForm")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController InsertProductForm").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "parsing form").Logger()
	logger.Trace().Msg("parsing form")
	if err := r.ParseForm(); err != nil {
		err = fmt.Errorf("failed parsing form with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	price, err := decimal.NewFromString(r.PostFormValue("price"))
	if err != nil {
		err = fmt.Errorf("failed parsing price with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    "failed to add product",
			"data": map[string]interface{}{
				"errors": []validate.FieldError{
					{Field: "price", Message: "price must be a non-negative number"},
				},
			},
		})
		return
	}
	reqBody := request.Product{
		ProductName: r.PostFormValue("productname"),
		Description: r.PostFormValue("description"),
		Price:       price,
	}
	logger.Trace().Msg("parsed form")

	p.insertProduct(c, w, reqBody)
}

func (p ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController InsertProduct").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.Product{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Trace().Msg("decoded request body")

	p.insertProduct(logger.WithContext(c), w, reqBody)
}

func (p ProductController) insertProduct(
	c context.Context,
	w http.ResponseWriter,
	reqBody request.Product,
) {
	c, span := otel.Tracer.Start(c, "ProductController insertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController insertProduct").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := p.validator.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    "failed to add product",
			"data": map[string]interface{}{
				"errors": validate.Fields(err),
			},
		})
		return
	}
	logger.Trace().Msg("validated request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	c = logger.WithContext(c)
	product, err := p.service.InsertProduct(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Str(constants.KEY_PRODUCT_ID, product.ID.String()).Msg("inserted product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "product added",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (p ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController UpdateProduct")
	defer span.End()

	pathValues := mux.Vars(r)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController UpdateProduct").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "parsing productId").Logger()
	logger.Trace().Msg("parsing productId")
	productId, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		w.WriteHeader(http.StatusNotFound)
		return
	}
	logger = logger.With().Str(constants.KEY_PRODUCT_ID, productId.String()).Logger()
	logger.Trace().Msg("parsed productId")

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.Product{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := p.validator.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    "failed to update product",
			"data": map[string]interface{}{
				"errors": validate.Fields(err),
			},
		})
		return
	}
	logger.Trace().Msg("validated request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "updating product").Logger()
	logger.Info().Msg("updating product")
	c = logger.WithContext(c)
	product, err := p.service.UpdateProduct(c, productId, reqBody)
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if errors.Is(err, inErrors.ErrProductNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("updated product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "product updated",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (p ProductController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController RemoveProduct")
	defer span.End()

	pathValues := mux.Vars(r)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductController RemoveProduct").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "parsing productId").Logger()
	logger.Trace().Msg("parsing productId")
	productId, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		w.WriteHeader(http.StatusNotFound)
		return
	}
	logger = logger.With().Str(constants.KEY_PRODUCT_ID, productId.String()).Logger()
	logger.Trace().Msg("parsed productId")

	logger = logger.With().Str(constants.KEY_PROCESS, "removing product").Logger()
	logger.Info().Msg("removing product")
	c = logger.WithContext(c)
	if _, err := p.service.RemoveProduct(c, productId); err != nil {
		err = fmt.Errorf("failed removing product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if errors.Is(err, inErrors.ErrProductNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("removed product")

	w.WriteHeader(http.StatusNoContent)
}
