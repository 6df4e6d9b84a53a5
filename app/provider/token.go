package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenCache holds one provider's access token. Refresh runs through a
// singleflight group so concurrent requests hitting an expired token trigger
// a single fetch instead of a stampede.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

type tokenFetchFunc func(ctx context.Context) (string, time.Duration, error)

func (c *tokenCache) get(ctx context.Context, fetch tokenFetchFunc) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do("token", func() (interface{}, error) {
		c.mu.Lock()
		if c.token != "" && time.Now().Before(c.expiresAt) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		token, ttl, err := fetch(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.token = token
		// Refresh one minute early so an almost-expired token is never used.
		c.expiresAt = time.Now().Add(ttl - time.Minute)
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
