package match

import (
	"maps"
	"strconv"
	"time"

	"github.com/WessleyAI/occumatch/engine/rank"
	"github.com/dgraph-io/ristretto/v2"
)

// resultCache memoizes complete results for identical queries.
type resultCache struct {
	c   *ristretto.Cache[string, *Result]
	ttl time.Duration
}

func newResultCache(maxEntries int64, ttl time.Duration) (*resultCache, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *Result]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &resultCache{c: c, ttl: ttl}, nil
}

func cacheKey(text string, topK int) string {
	return strconv.Itoa(topK) + "\x00" + text
}

// get returns a deep copy of the cached result, so callers may modify it.
func (rc *resultCache) get(key string) (*Result, bool) {
	r, ok := rc.c.Get(key)
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// set stores a deep copy of r.
func (rc *resultCache) set(key string, r *Result) {
	rc.c.SetWithTTL(key, r.clone(), 1, rc.ttl)
}

// clone copies r together with its matches and their metadata maps.
// TopMatch points into the copied matches.
func (r *Result) clone() *Result {
	out := *r
	out.Matches = make([]rank.Candidate, len(r.Matches))
	for i, c := range r.Matches {
		c.Metadata = maps.Clone(c.Metadata)
		out.Matches[i] = c
	}
	out.TopMatch = nil
	if r.TopMatch != nil && len(out.Matches) > 0 {
		out.TopMatch = &out.Matches[0]
	}
	return &out
}

// wait blocks until buffered writes are visible to get.
func (rc *resultCache) wait() { rc.c.Wait() }

func (rc *resultCache) close() { rc.c.Close() }
