package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/dxportal/internal/auth"
	"github.com/five82/dxportal/internal/config"
	"github.com/five82/dxportal/internal/state"
)

type countingProvider struct {
	ready bool
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Ready() bool { return p.ready }

func (p *countingProvider) AccessToken(context.Context) (string, error) {
	p.calls.Add(1)
	return "token", p.err
}

func TestKeepAliveSkipsSignedOutSessions(t *testing.T) {
	p := &countingProvider{}
	keepAlive(context.Background(), p)
	if p.calls.Load() != 0 {
		t.Fatalf("AccessToken called %d times for a signed-out session", p.calls.Load())
	}

	p.ready = true
	p.err = errors.New("refresh denied")
	keepAlive(context.Background(), p)
	if p.calls.Load() != 1 {
		t.Fatalf("AccessToken called %d times, want 1", p.calls.Load())
	}
}

func TestStartKeepAliveStopsWithContext(t *testing.T) {
	p := &countingProvider{ready: true}
	ctx, cancel := context.WithCancel(context.Background())
	StartKeepAlive(ctx, p, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("keep-alive did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := p.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if p.calls.Load() != settled {
		t.Fatalf("keep-alive kept running after cancel")
	}
}

func TestFullAccessClaims(t *testing.T) {
	claims := fullAccessClaims("https://api.example.com/")
	links, err := claims.ScreenAccess("api.example.com")
	if err != nil {
		t.Fatalf("ScreenAccess: %v", err)
	}
	if len(links) != 7 {
		t.Fatalf("links = %d, want 7", len(links))
	}
	nav := state.NewNavigation()
	nav.SetLinks(links)
	perm := nav.Permissions(state.ControlLocations)
	if !perm.ScreenAccess || !perm.Edit || !perm.Delete {
		t.Fatalf("Permissions = %+v, want full access", perm)
	}
	if claims.DisplayName() != "API token" {
		t.Fatalf("DisplayName = %q", claims.DisplayName())
	}
}

func TestNewProviderPicksMode(t *testing.T) {
	static, err := newProvider(config.Config{ServerURL: "api.example.com", Token: "abc"})
	if err != nil {
		t.Fatalf("newProvider static: %v", err)
	}
	if _, ok := static.(*auth.StaticProvider); !ok || !static.Ready() {
		t.Fatalf("static token should give a signed-in StaticProvider, got %T", static)
	}

	device, err := newProvider(config.Config{ServerURL: "api.example.com", AuthDomain: "tenant.example.com", AuthClientID: "cid"})
	if err != nil {
		t.Fatalf("newProvider device: %v", err)
	}
	if _, ok := device.(*auth.DeviceProvider); !ok || device.Ready() {
		t.Fatalf("device config should give a signed-out DeviceProvider, got %T", device)
	}
}

func TestRetryPolicy(t *testing.T) {
	if got := retryPolicy(0).MaxAttempts; got != 3 {
		t.Fatalf("default attempts = %d, want 3", got)
	}
	if got := retryPolicy(5).MaxAttempts; got != 5 {
		t.Fatalf("attempts = %d, want 5", got)
	}
}
