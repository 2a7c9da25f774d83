package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TokenStore is the subset of token persistence the cleanup job uses
type TokenStore interface {
	DeleteExpiredTokens(ctx context.Context) error
	CleanupRevokedTokens(ctx context.Context) error
}

// TokenCleanup periodically removes expired and stale revoked refresh
// tokens so the token table does not grow unbounded.
type TokenCleanup struct {
	tokens   TokenStore
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewTokenCleanup creates a new token cleanup job
func NewTokenCleanup(tokens TokenStore, interval time.Duration) *TokenCleanup {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &TokenCleanup{
		tokens:   tokens,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the token cleanup job
func (c *TokenCleanup) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
	slog.Info("token cleanup started", slog.Duration("interval", c.interval))
}

// Stop gracefully stops the token cleanup job
func (c *TokenCleanup) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
	slog.Info("token cleanup stopped")
}

// IsRunning returns whether the cleanup job is running
func (c *TokenCleanup) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *TokenCleanup) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *TokenCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := c.RunOnce(ctx); err != nil {
		slog.Error("token cleanup failed", slog.String("error", err.Error()))
	}
}

// RunOnce performs one cleanup pass (also used for manual triggers)
func (c *TokenCleanup) RunOnce(ctx context.Context) error {
	if err := c.tokens.DeleteExpiredTokens(ctx); err != nil {
		return err
	}
	return c.tokens.CleanupRevokedTokens(ctx)
}
