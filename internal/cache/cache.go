package cache

const (
	KEY_SESSION_REVOKED = "sessions:revoked:%s"
)
