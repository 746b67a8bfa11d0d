package cache

const (
	KEY_PRODUCTS = "products:%s"
)
