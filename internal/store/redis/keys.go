package redis

const (
	// KeyPrefixRoute is the prefix for route records
	KeyPrefixRoute = "portal:route:"
	// KeyAllRoutes is the set of all route ids
	KeyAllRoutes = "portal:routes:all"
)

// RouteKey returns the Redis key for a route by id
func RouteKey(id string) string {
	return KeyPrefixRoute + id
}

// AllRoutesKey returns the key for the set of all route ids
func AllRoutesKey() string {
	return KeyAllRoutes
}
