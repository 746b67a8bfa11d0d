package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/nandias/storefront/internal/constants"
)

var Tracer = otel.Tracer(constants.APP_STOREFRONT + "-cart")
