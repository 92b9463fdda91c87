// Package cache memoizes aggregation results keyed by the content of their input.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/metrics"
	"github.com/yourusername/gltp-records/internal/models"
)

// Fingerprint hashes a record collection independently of its order.
// Two collections holding the same records always share a fingerprint.
func Fingerprint(records []models.Record) string {
	digests := make([]string, len(records))
	for i, rec := range records {
		digests[i] = recordDigest(rec)
	}
	sort.Strings(digests)

	h := sha256.New()
	for _, d := range digests {
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Key combines a record fingerprint with the catalog revision the result was computed against.
func Key(records []models.Record, catalogRevision string) string {
	return Fingerprint(records) + ":" + catalogRevision
}

func recordDigest(rec models.Record) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(rec.ID.String())
	write(rec.MapID)
	write(rec.MapName)
	write(rec.Owner.ID)
	write(rec.Owner.Name)
	write(strconv.FormatInt(int64(rec.Time), 10))
	write(strconv.FormatInt(rec.Timestamp.UnixNano(), 10))
	write(rec.Mode.String())
	write(rec.Quote)
	for _, p := range rec.Participants {
		write(p.ID)
		write(p.Name)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ResultCache provides in-memory caching for aggregation results
type ResultCache struct {
	cache     *gocache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewResultCache creates a new result cache. maxSize <= 0 disables the size bound.
func NewResultCache(ttl time.Duration, maxSize int) *ResultCache {
	return &ResultCache{
		cache:   gocache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result
func (rc *ResultCache) Get(key string) (*leaderboard.Result, bool) {
	item, found := rc.cache.Get(key)
	res, ok := item.(*leaderboard.Result)
	hit := found && ok

	rc.mu.Lock()
	if hit {
		rc.hitCount++
	} else {
		rc.missCount++
	}
	ratio := rc.ratioLocked()
	rc.mu.Unlock()

	metrics.RecordCacheLookup(hit, ratio)
	if !hit {
		return nil, false
	}
	return res, true
}

// Set stores a result. Cached results are shared and must be treated as read-only.
func (rc *ResultCache) Set(key string, res *leaderboard.Result) {
	if rc.maxSize > 0 && rc.cache.ItemCount() >= rc.maxSize {
		rc.cache.DeleteExpired()
		if rc.cache.ItemCount() >= rc.maxSize {
			rc.cache.Flush()
		}
	}
	rc.cache.Set(key, res, rc.ttl)
}

// Clear flushes the entire cache
func (rc *ResultCache) Clear() {
	rc.cache.Flush()

	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.hitCount = 0
	rc.missCount = 0
}

// Stats returns cache statistics
func (rc *ResultCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.hitCount, rc.missCount, rc.ratioLocked()
}

func (rc *ResultCache) ratioLocked() float64 {
	total := rc.hitCount + rc.missCount
	if total == 0 {
		return 0
	}
	return float64(rc.hitCount) / float64(total)
}

// ItemCount returns the number of items in cache
func (rc *ResultCache) ItemCount() int {
	return rc.cache.ItemCount()
}
