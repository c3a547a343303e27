package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// CacheConfig configures WithCache.
type CacheConfig struct {
	// TTL is how long a response stays cached. Zero disables caching.
	TTL time.Duration `json:"ttl" yaml:"ttl" koanf:"ttl"`

	// Capacity bounds the number of cached responses. Zero means unbounded.
	Capacity uint64 `json:"capacity" yaml:"capacity" koanf:"capacity"`
}

// Enabled reports whether caching is configured.
func (c CacheConfig) Enabled() bool {
	return c.TTL > 0
}

type cachingClient struct {
	Client
	cache *ttlcache.Cache[string, *Response]
}

// WithCache wraps client so that identical deterministic requests are served
// from memory for cfg.TTL. Only requests with zero temperature and no tools
// are cached; everything else passes straight through.
func WithCache(client Client, cfg CacheConfig) Client {
	opts := []ttlcache.Option[string, *Response]{
		ttlcache.WithTTL[string, *Response](cfg.TTL),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *Response](cfg.Capacity))
	}
	return &cachingClient{
		Client: client,
		cache:  ttlcache.New(opts...),
	}
}

func (c *cachingClient) Complete(ctx context.Context, req Request) (*Response, error) {
	key, ok := cacheKey(req)
	if !ok {
		return c.Client.Complete(ctx, req)
	}
	if item := c.cache.Get(key); item != nil {
		slog.Debug("LLM response served from cache", slog.String("provider", c.Client.Provider()))
		resp := *item.Value()
		return &resp, nil
	}

	resp, err := c.Client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	cached := *resp
	c.cache.Set(key, &cached, ttlcache.DefaultTTL)
	return resp, nil
}

// Close drops cached responses and closes the wrapped client.
func (c *cachingClient) Close() error {
	c.cache.DeleteAll()
	return c.Client.Close()
}

func cacheKey(req Request) (string, bool) {
	if req.Temperature != 0 || len(req.Tools) > 0 {
		return "", false
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), true
}
