package geo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const defaultLookupTimeout = 10 * time.Second

// CachedGeocoder memoizes successful lookups and collapses concurrent
// lookups of the same key into one upstream call. The shared call is
// detached from any single caller's cancellation; each caller still
// returns as soon as its own context is done.
type CachedGeocoder struct {
	next    Geocoder
	cache   *cache.Cache
	group   singleflight.Group
	timeout time.Duration
}

func NewCachedGeocoder(next Geocoder, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGeocoder{
		next:    next,
		cache:   cache.New(ttl, ttl/4),
		timeout: defaultLookupTimeout,
	}
}

type forwardResult struct {
	latlng string
	ok     bool
}

func (c *CachedGeocoder) Forward(ctx context.Context, name string) (string, bool) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(name))
	if v, found := c.cache.Get(key); found {
		return v.(string), true
	}
	ch := c.group.DoChan(key, func() (any, error) {
		sctx, cancel := c.sharedContext(ctx)
		defer cancel()
		latlng, ok := c.next.Forward(sctx, name)
		if ok {
			c.cache.SetDefault(key, latlng)
		}
		return forwardResult{latlng: latlng, ok: ok}, nil
	})
	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		fr := res.Val.(forwardResult)
		return fr.latlng, fr.ok
	}
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) string {
	// ~1m precision is enough to share an address.
	key := "rev:" + strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lng, 'f', 5, 64)
	if v, found := c.cache.Get(key); found {
		return v.(string)
	}
	ch := c.group.DoChan(key, func() (any, error) {
		sctx, cancel := c.sharedContext(ctx)
		defer cancel()
		addr := c.next.Reverse(sctx, lat, lng)
		if addr != FallbackPlaceName {
			c.cache.SetDefault(key, addr)
		}
		return addr, nil
	})
	select {
	case <-ctx.Done():
		return FallbackPlaceName
	case res := <-ch:
		return res.Val.(string)
	}
}

// sharedContext keeps the first caller's values but not its deadline or
// cancellation, bounded by the lookup timeout.
func (c *CachedGeocoder) sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
}

// Flush drops every cached entry.
func (c *CachedGeocoder) Flush() {
	c.cache.Flush()
}
