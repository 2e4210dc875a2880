package aggregate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/models"
)

// Cache is the single-slot cache in front of the aggregator. Only the
// unfiltered view is ever cached; any filter bypasses the slot. The
// fingerprint hashes the upload count rather than content: uploads are
// append/delete only, never mutated in place, so a count change is the
// only way the unfiltered view can go stale before the TTL does.
type Cache struct {
	agg     *Aggregator
	metrics *metrics.Metrics
	ttl     time.Duration
	now     func() time.Time

	mu          sync.Mutex
	view        *models.UnifiedView
	fingerprint string
	builtAt     time.Time
}

func NewCache(agg *Aggregator, m *metrics.Metrics, ttl time.Duration) *Cache {
	return &Cache{
		agg:     agg,
		metrics: m,
		ttl:     ttl,
		now:     time.Now,
	}
}

func fingerprint(uploadCount int, filters Filters) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", uploadCount, filters)))
	return hex.EncodeToString(h[:])
}

// GetOrBuild returns the cached unfiltered view when the fingerprint
// matches and the slot is younger than the TTL; otherwise it rebuilds
// and replaces the slot. The mutex covers the whole check-and-rebuild
// sequence so concurrent requests coalesce to one rebuild.
func (c *Cache) GetOrBuild(ctx context.Context, uploads []models.UploadRecord, filters Filters) *models.UnifiedView {
	if !filters.Empty() {
		if c.metrics != nil {
			c.metrics.RecordAggCache("bypass")
		}
		return c.agg.Aggregate(ctx, uploads, filters)
	}

	fp := fingerprint(len(uploads), filters)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != nil && c.fingerprint == fp && c.now().Sub(c.builtAt) < c.ttl {
		if c.metrics != nil {
			c.metrics.RecordAggCache("hit")
		}
		return c.view
	}

	if c.metrics != nil {
		c.metrics.RecordAggCache("miss")
	}
	view := c.agg.Aggregate(ctx, uploads, filters)
	c.view = view
	c.fingerprint = fp
	c.builtAt = c.now()
	return view
}

// Invalidate empties the slot immediately.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = nil
	c.fingerprint = ""
	c.builtAt = time.Time{}
}
