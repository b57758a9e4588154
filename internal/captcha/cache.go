package captcha

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"
)

// Cache decorates a Resolver with a content-addressed answer cache. A retry
// that re-renders the same challenge image is answered instantly without
// re-invoking any strategy. Access is sequential by design (one record at a
// time), so no locking is needed.
type Cache struct {
	inner   Resolver
	answers map[string]string
}

// NewCache wraps a Resolver with an in-run answer cache keyed by the SHA-256
// of the image content.
func NewCache(inner Resolver) *Cache {
	return &Cache{
		inner:   inner,
		answers: make(map[string]string),
	}
}

// Resolve consults the cache before delegating, and stores any accepted
// answer under the image's content key.
func (c *Cache) Resolve(ctx context.Context, image []byte) (string, error) {
	key := contentKey(image)
	if answer, ok := c.answers[key]; ok {
		zap.L().Debug("captcha: cache hit", zap.String("key", key[:12]))
		return answer, nil
	}

	answer, err := c.inner.Resolve(ctx, image)
	if err != nil {
		return "", err
	}

	c.answers[key] = answer
	return answer, nil
}

func contentKey(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
