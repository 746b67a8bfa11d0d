package constants

const (
	APP_STOREFRONT = "storefront"
	AUDIENCE_USER  = "audience-user"
)

const (
	KEY_APP_NAME       = "app"
	KEY_BODY           = "body"
	KEY_CACHE_KEY      = "cacheKey"
	KEY_CART           = "cart"
	KEY_CART_ITEM      = "cartItem"
	KEY_CART_ITEM_ID   = "cartItemId"
	KEY_CONFIG         = "config"
	KEY_DB_URL         = "dbUrl"
	KEY_EMAIL          = "email"
	KEY_HEADER         = "header"
	KEY_JSON_CACHE     = "jsonCache"
	KEY_PROCESS        = "process"
	KEY_PRODUCT        = "product"
	KEY_PRODUCTS       = "products"
	KEY_PRODUCT_ID     = "productId"
	KEY_QUANTITY       = "quantity"
	KEY_REQUEST        = "request"
	KEY_REQUEST_HOST   = "host"
	KEY_REQUEST_ID     = "requestId"
	KEY_REQUEST_IP     = "requesterIP"
	KEY_REQUEST_METHOD = "requestMethod"
	KEY_REQUEST_URI    = "requestURI"
	KEY_REQUEST_URL    = "requestURL"
	KEY_SEARCH_QUERY   = "searchQuery"
	KEY_SPAN_ID        = "spanId"
	KEY_SUBTOTAL       = "subtotal"
	KEY_TAG            = "tag"
	KEY_TOKEN          = "token"
	KEY_TRACE_ID       = "traceId"
	KEY_USERNAME       = "username"
	KEY_USER_ID        = "userId"
)
