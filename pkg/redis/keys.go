package redis

import (
	"strconv"
	"strings"
)

// Keyspace builds the colon-separated keys every component writes under.
// The zero value uses no namespace.
type Keyspace struct {
	Namespace string
}

// DefaultKeyspace is what New installs.
var DefaultKeyspace = Keyspace{Namespace: "lr"}

func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.join("idempotency", scope, id)
}

// RateLimitKey addresses one login throttling counter, e.g. policy "login",
// dimension "ip".
func (k Keyspace) RateLimitKey(policy, dimension, subject string) string {
	return k.join("rate_limit", policy, dimension, subject)
}

func (k Keyspace) LockKey(name string) string {
	return k.join("lock", name)
}

// AccessSessionKey holds the refresh session tied to an access token jti.
func (k Keyspace) AccessSessionKey(accessID string) string {
	return k.join("session", "access", accessID)
}

// HierarchyCacheKey holds the serialized price tree of one customer.
func (k Keyspace) HierarchyCacheKey(customerID int64) string {
	return k.join("pricing", "hierarchy", strconv.FormatInt(customerID, 10))
}

// CatalogVersionKey is bumped on every catalog write. Cached hierarchies
// tagged with an older version are ignored.
func (k Keyspace) CatalogVersionKey() string {
	return k.join("pricing", "catalog_version")
}

func (k Keyspace) join(parts ...string) string {
	out := make([]string, 0, len(parts)+1)
	if ns := strings.TrimSpace(k.Namespace); ns != "" {
		out = append(out, ns)
	}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ":")
}
