// Package predcache wraps a predictor with an LRU memoizer. The optimizer's
// refinement phase and the synthesizer's current-price re-evaluation revisit
// prices the grid scan already scored; since prediction is deterministic for
// a given model, caching is transparent.
package predcache

import (
	"math"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pricecast/pricecast/internal/metrics"
	"github.com/pricecast/pricecast/internal/model"
	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/dataset"
)

// CachingPredictor memoizes Predict calls against an inner predictor. Safe
// for concurrent use; the underlying LRU is synchronized.
type CachingPredictor struct {
	inner  model.Predictor
	schema []string
	cache  *lru.Cache[string, float64]
}

// New wraps inner with an LRU of the given size. size <= 0 selects the
// default.
func New(inner model.Predictor, size int) (*CachingPredictor, error) {
	if size <= 0 {
		size = constants.DefaultPredictionCacheSize
	}
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &CachingPredictor{inner: inner, schema: inner.Schema(), cache: cache}, nil
}

// Predict returns the cached prediction when available, otherwise delegates
// to the inner predictor. Errors are never cached.
func (c *CachingPredictor) Predict(fv dataset.FeatureVector) (float64, error) {
	key, ok := c.key(fv)
	if !ok {
		// Schema deviation; let the inner predictor produce the typed error.
		return c.inner.Predict(fv)
	}
	if v, hit := c.cache.Get(key); hit {
		metrics.PredictionCacheHitsTotal.Inc()
		return v, nil
	}
	metrics.PredictionCacheMissesTotal.Inc()
	v, err := c.inner.Predict(fv)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, v)
	return v, nil
}

// Schema returns the inner predictor's feature schema.
func (c *CachingPredictor) Schema() []string {
	out := make([]string, len(c.schema))
	copy(out, c.schema)
	return out
}

// Len reports the number of cached entries.
func (c *CachingPredictor) Len() int {
	return c.cache.Len()
}

// key flattens the vector into a stable string keyed by the fixed schema
// order. Returns ok=false when the vector does not match the schema.
func (c *CachingPredictor) key(fv dataset.FeatureVector) (string, bool) {
	if len(fv) != len(c.schema) {
		return "", false
	}
	var sb strings.Builder
	for _, name := range c.schema {
		v, present := fv[name]
		if !present {
			return "", false
		}
		sb.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
		sb.WriteByte('|')
	}
	return sb.String(), true
}
