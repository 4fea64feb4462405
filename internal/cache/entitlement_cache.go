package cache

import (
	"maps"
	"time"

	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
)

const defaultEntitlementTTL = 30 * time.Second

// EntitlementCache stores hot-path user entitlement lookups for gating.
type EntitlementCache interface {
	Get(userID int64) (gatedomain.UserEntitlement, bool)
	Set(user gatedomain.UserEntitlement)
	Invalidate(userID int64)
}

type entitlementCache struct {
	users Cache[int64, gatedomain.UserEntitlement]
	ttl   time.Duration
}

// NewEntitlementCache returns an in-memory cache. A non-positive ttl uses the default.
func NewEntitlementCache(ttl time.Duration) EntitlementCache {
	if ttl <= 0 {
		ttl = defaultEntitlementTTL
	}
	return &entitlementCache{
		users: NewTTLCache[int64, gatedomain.UserEntitlement](),
		ttl:   ttl,
	}
}

func (c *entitlementCache) Get(userID int64) (gatedomain.UserEntitlement, bool) {
	user, ok := c.users.Get(userID)
	if !ok {
		return gatedomain.UserEntitlement{}, false
	}
	return clone(user), true
}

func (c *entitlementCache) Set(user gatedomain.UserEntitlement) {
	if user.ID <= 0 {
		return
	}
	c.users.Set(user.ID, clone(user), c.ttl)
}

func (c *entitlementCache) Invalidate(userID int64) {
	c.users.Delete(userID)
}

// clone detaches PurchasedFeatures so callers never share the cached map.
func clone(user gatedomain.UserEntitlement) gatedomain.UserEntitlement {
	user.PurchasedFeatures = maps.Clone(user.PurchasedFeatures)
	return user
}
