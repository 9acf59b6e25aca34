package secrets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Credentials are the values that may be rotated while the bot is running.
type Credentials struct {
	// AdminTelegramID is 0 when no admin is configured.
	AdminTelegramID int64
}

// Source loads the current credentials.
type Source interface {
	Load(ctx context.Context) (*Credentials, error)
}

// EnvSource reads credentials from environment variables on every Load.
type EnvSource struct{}

func (EnvSource) Load(_ context.Context) (*Credentials, error) {
	creds := &Credentials{}
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		creds.AdminTelegramID = id
	}
	return creds, nil
}

// Cache keeps the last loaded credentials for ttl. A failed refresh returns the
// error and leaves the cache empty so the next call retries.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	cached   *Credentials
	loadedAt time.Time
}

func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{source: source, ttl: ttl, now: time.Now}
}

func (c *Cache) Get(ctx context.Context) (*Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.cached, nil
	}

	creds, err := c.source.Load(ctx)
	if err != nil {
		c.cached = nil
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	c.cached = creds
	c.loadedAt = c.now()
	return creds, nil
}

// AdminID returns the admin's Telegram user id, reloading it once the ttl has passed.
func (c *Cache) AdminID(ctx context.Context) (int64, error) {
	creds, err := c.Get(ctx)
	if err != nil {
		return 0, err
	}
	return creds.AdminTelegramID, nil
}

// Invalidate drops the cached credentials.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
