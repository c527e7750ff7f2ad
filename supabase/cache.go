package supabase

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxJWKSBodySize = 1 << 20

// KeySetFetcher retrieves the current key set
type KeySetFetcher interface {
	Fetch(ctx context.Context) (*KeySet, error)
}

// HTTPFetcher fetches a key set with a single GET request
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for url. Every request is bounded by timeout.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the key set
func (f *HTTPFetcher) Fetch(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var set KeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBodySize)).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrJWKSFetchFailed, err)
	}
	return &set, nil
}

// CacheConfig holds tuning for KeyCache
type CacheConfig struct {
	// TTL bounds how long a resolved key is trusted. Zero keeps keys for the
	// lifetime of the cache.
	TTL time.Duration

	// MinRefreshInterval is the minimum time between two fetches of the key
	// set. Lookups for unknown kids inside this window are answered from the
	// last fetched set.
	MinRefreshInterval time.Duration
}

type cachedKey struct {
	key       crypto.PublicKey
	expiresAt time.Time
}

// CacheStats is a snapshot of the cache state
type CacheStats struct {
	CachedKeys int
	LastFetch  time.Time
	Fetches    int
}

// KeyCache maps kids to verification keys, fetching the key set on a miss.
// It is safe for concurrent use; concurrent misses share one fetch.
type KeyCache struct {
	fetcher KeySetFetcher
	config  CacheConfig
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	keys      map[string]cachedKey
	lastSet   *KeySet
	lastFetch time.Time
	fetches   int
}

// NewKeyCache creates an empty cache backed by fetcher
func NewKeyCache(fetcher KeySetFetcher, config CacheConfig, logger *zap.Logger) *KeyCache {
	if config.MinRefreshInterval <= 0 {
		config.MinRefreshInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyCache{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
		now:     time.Now,
		keys:    make(map[string]cachedKey),
	}
}

// Resolve returns the verification key for kid. Errors are *KeyError.
func (c *KeyCache) Resolve(ctx context.Context, kid string) (crypto.PublicKey, error) {
	if kid == "" {
		return nil, &KeyError{Kind: ErrKeyNotFound, Kid: kid, Err: errors.New("token has no kid header")}
	}

	if key, ok := c.lookup(kid); ok {
		return key, nil
	}

	set, err := c.keySet(ctx)
	if err != nil {
		return nil, &KeyError{Kind: ErrJWKSFetchFailed, Kid: kid, Err: err}
	}

	jwk := set.Find(kid)
	if jwk == nil {
		return nil, &KeyError{Kind: ErrKeyNotFound, Kid: kid}
	}

	key, err := jwk.PublicKey()
	if err != nil {
		return nil, &KeyError{Kind: keyErrorKind(err), Kid: kid, Err: err}
	}

	c.mu.Lock()
	entry := cachedKey{key: key}
	if c.config.TTL > 0 {
		entry.expiresAt = c.now().Add(c.config.TTL)
	}
	c.keys[kid] = entry
	c.mu.Unlock()

	return key, nil
}

func (c *KeyCache) lookup(kid string) (crypto.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.keys[kid]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.key, true
}

// keySet returns the last fetched set while it is younger than
// MinRefreshInterval, otherwise fetches a new one.
func (c *KeyCache) keySet(ctx context.Context) (*KeySet, error) {
	c.mu.RLock()
	if c.lastSet != nil && c.now().Sub(c.lastFetch) < c.config.MinRefreshInterval {
		set := c.lastSet
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	ch := c.group.DoChan("jwks", func() (interface{}, error) {
		// Detached so one caller giving up does not fail the others
		set, err := c.fetcher.Fetch(context.WithoutCancel(ctx))
		if err != nil {
			c.logger.Error("JWKS fetch failed", zap.Error(err))
			return nil, err
		}

		c.mu.Lock()
		c.lastSet = set
		c.lastFetch = c.now()
		c.fetches++
		c.mu.Unlock()

		c.logger.Debug("JWKS fetched", zap.Int("keys", len(set.Keys)))
		return set, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeySet), nil
	}
}

// Invalidate drops every cached key and the last fetched set
func (c *KeyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = make(map[string]cachedKey)
	c.lastSet = nil
	c.lastFetch = time.Time{}
}

// Stats returns cache statistics
func (c *KeyCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		CachedKeys: len(c.keys),
		LastFetch:  c.lastFetch,
		Fetches:    c.fetches,
	}
}

func keyErrorKind(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedKeyType):
		return ErrUnsupportedKeyType
	case errors.Is(err, ErrUnsupportedCurve):
		return ErrUnsupportedCurve
	default:
		return ErrMalformedKey
	}
}
