package app

import (
	"context"
	"log"
	"time"
)

const defaultKeepAliveInterval = 5 * time.Minute

// tokenKeeper is the part of the sign-in provider the keep-alive needs.
type tokenKeeper interface {
	Ready() bool
	AccessToken(ctx context.Context) (string, error)
}

// StartKeepAlive launches a background goroutine that asks the provider for
// a token at a fixed cadence, so an expiring access token is refreshed and a
// revoked refresh token surfaces in the session state. It returns
// immediately.
func StartKeepAlive(ctx context.Context, provider tokenKeeper, interval time.Duration) {
	if interval <= 0 {
		interval = defaultKeepAliveInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			keepAlive(ctx, provider)
		}
	}()
}

func keepAlive(ctx context.Context, provider tokenKeeper) {
	if !provider.Ready() {
		return
	}
	if _, err := provider.AccessToken(ctx); err != nil {
		log.Printf("token refresh failed: %v", err)
	}
}
