// Package cache stores rendered documents for routes that produce a
// complete response in one piece. Streaming renders are never cached;
// only async-mode output is a cacheable unit.
package cache

import (
	"context"
	"time"
)

// Store is a document cache keyed by request path.
type Store interface {
	// Get returns the cached document for key, or found=false on a
	// miss or expired entry.
	Get(ctx context.Context, key string) (body []byte, found bool, err error)

	// Put stores a document under key for ttl. A zero ttl means the
	// entry never expires.
	Put(ctx context.Context, key string, body []byte, ttl time.Duration) error
}
