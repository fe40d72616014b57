package redis

import (
	"fmt"
	"strings"
)

// Keys follow the pattern {namespace}:{entity}:{id}[:{field}].
//
// Example: "aw:favorites:default:art-favorites"

// KeyNamespace prefixes every key written by the storefront.
const KeyNamespace = "aw"

// Key prefixes parts with the namespace.
// Example: Key("favorites", "default", "art-favorites") is
// aw:favorites:default:art-favorites
func Key(parts ...string) string {
	return KeyNamespace + ":" + strings.Join(parts, ":")
}

// GalleryCacheKey returns the key for a memoized gallery result.
// Example: aw:cache:gallery:3f2a...
func GalleryCacheKey(hash string) string {
	return fmt.Sprintf("%s:cache:gallery:%s", KeyNamespace, hash)
}

// RateLimitKey returns a key for rate limiting one action by one caller.
// Example: aw:ratelimit:toggle:10.0.0.1:60
func RateLimitKey(action, identifier string, windowSeconds int) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s:%d", KeyNamespace, action, identifier, windowSeconds)
}

// ChannelKey returns a pub/sub channel name.
// Example: aw:channel:favorites
func ChannelKey(name string) string {
	return fmt.Sprintf("%s:channel:%s", KeyNamespace, name)
}
