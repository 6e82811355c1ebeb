package mediatype

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type parseResult struct {
	parsed *ParsedMediaType
	ok     bool
}

// CachingParser memoizes Catalog.Parse by raw header value. Clients tend to
// send the same handful of Accept and Content-Type values, so the cache stays
// small. Cached results are shared between requests and must not be modified.
type CachingParser struct {
	catalog *Catalog
	cache   *ttlcache.Cache[string, parseResult]
}

func NewCachingParser(catalog *Catalog, ttl time.Duration, capacity uint64) *CachingParser {
	return &CachingParser{
		catalog: catalog,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, parseResult](ttl),
			ttlcache.WithCapacity[string, parseResult](capacity),
		),
	}
}

func (p *CachingParser) Parse(value string) (*ParsedMediaType, bool) {
	if item := p.cache.Get(value); item != nil {
		r := item.Value()
		return r.parsed, r.ok
	}
	parsed, ok := p.catalog.Parse(value)
	p.cache.Set(value, parseResult{parsed: parsed, ok: ok}, ttlcache.DefaultTTL)
	return parsed, ok
}

func (p *CachingParser) Len() int {
	return p.cache.Len()
}

// Start runs the expiry loop until Stop is called.
func (p *CachingParser) Start() {
	p.cache.Start()
}

func (p *CachingParser) Stop() {
	p.cache.Stop()
}
