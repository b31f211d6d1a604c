package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

// State is the session as seen by the UI.
type State struct {
	Authenticated bool
	Loading       bool
	Claims        Claims
	Err           error
}

// DeviceCode is what the user needs to approve a device login.
type DeviceCode struct {
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	Expiry                  time.Time
}

// Provider is the identity provider session.
type Provider interface {
	State() State
	Ready() bool
	AccessToken(ctx context.Context) (string, error)
	Login(ctx context.Context, prompt func(DeviceCode)) error
	Logout()
}

// DefaultScopes are requested on every device login.
var DefaultScopes = []string{"openid", "profile", "email", "offline_access"}

// DeviceConfig configures a DeviceProvider.
type DeviceConfig struct {
	Domain   string
	ClientID string
	Audience string
	Scopes   []string
	HTTP     *http.Client
}

// DeviceProvider signs in with the OAuth2 device authorization flow and
// keeps tokens in memory only.
type DeviceProvider struct {
	oauth    oauth2.Config
	audience string
	userinfo string
	http     *http.Client

	mu     sync.Mutex
	state  State
	tokens oauth2.TokenSource
	ready  atomic.Bool
}

// NewDeviceProvider returns a signed-out provider for the given tenant.
func NewDeviceProvider(cfg DeviceConfig) (*DeviceProvider, error) {
	domain := strings.TrimRight(strings.TrimSpace(cfg.Domain), "/")
	if domain == "" {
		return nil, fmt.Errorf("auth domain is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("auth client id is required")
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &DeviceProvider{
		oauth: oauth2.Config{
			ClientID: cfg.ClientID,
			Scopes:   scopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: domain + "/oauth/device/code",
				TokenURL:      domain + "/oauth/token",
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		audience: cfg.Audience,
		userinfo: domain + "/userinfo",
		http:     httpClient,
	}, nil
}

// State returns the current session state.
func (p *DeviceProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ready reports an authenticated session that is not loading.
func (p *DeviceProvider) Ready() bool { return p.ready.Load() }

func (p *DeviceProvider) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.ready.Store(s.Authenticated && !s.Loading)
}

// Login runs the device flow: it requests a code, hands it to prompt and
// waits until the user approves it or ctx ends. Claims are loaded from the
// userinfo endpoint before Login returns.
func (p *DeviceProvider) Login(ctx context.Context, prompt func(DeviceCode)) error {
	p.setState(State{Loading: true})

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	var opts []oauth2.AuthCodeOption
	if p.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", p.audience))
	}

	resp, err := p.oauth.DeviceAuth(ctx, opts...)
	if err != nil {
		return p.fail(providerError("device authorization", err))
	}
	if prompt != nil {
		prompt(DeviceCode{
			UserCode:                resp.UserCode,
			VerificationURI:         resp.VerificationURI,
			VerificationURIComplete: resp.VerificationURIComplete,
			Expiry:                  resp.Expiry,
		})
	}

	tok, err := p.oauth.DeviceAccessToken(ctx, resp)
	if err != nil {
		return p.fail(providerError("device token", err))
	}

	// Refreshes outlive the login call.
	refreshCtx := context.WithValue(context.Background(), oauth2.HTTPClient, p.http)
	tokens := oauth2.ReuseTokenSource(tok, p.oauth.TokenSource(refreshCtx, tok))

	claims, err := p.fetchClaims(ctx, tokens)
	if err != nil {
		return p.fail(err)
	}

	p.mu.Lock()
	p.tokens = tokens
	p.mu.Unlock()
	p.setState(State{Authenticated: true, Claims: claims})
	return nil
}

func (p *DeviceProvider) fail(err error) error {
	p.mu.Lock()
	p.tokens = nil
	p.mu.Unlock()
	p.setState(State{Err: err})
	return err
}

func (p *DeviceProvider) fetchClaims(ctx context.Context, tokens oauth2.TokenSource) (Claims, error) {
	client := oauth2.NewClient(ctx, tokens)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfo, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, providerError("userinfo", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &IdentityProviderError{
			Op:          "userinfo",
			Description: strings.TrimSpace(fmt.Sprintf("%s %s", http.StatusText(resp.StatusCode), body)),
		}
	}

	var claims Claims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return claims, nil
}

// AccessToken returns a valid access token, refreshing it silently when it
// has expired. A failed refresh is recorded on the session state.
func (p *DeviceProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	tokens := p.tokens
	p.mu.Unlock()
	if tokens == nil {
		return "", ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := tokens.Token()
	if err != nil {
		err = providerError("token refresh", err)
		s := p.State()
		s.Err = err
		p.setState(s)
		return "", err
	}
	return tok.AccessToken, nil
}

// Logout forgets the tokens and claims.
func (p *DeviceProvider) Logout() {
	p.mu.Lock()
	p.tokens = nil
	p.mu.Unlock()
	p.setState(State{})
}

// StaticProvider serves a fixed bearer token, for scripted sessions.
type StaticProvider struct {
	mu     sync.Mutex
	token  string
	claims Claims
}

// NewStaticProvider returns a provider that is signed in whenever token is
// non-empty.
func NewStaticProvider(token string, claims Claims) *StaticProvider {
	return &StaticProvider{token: token, claims: claims}
}

func (p *StaticProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == "" {
		return State{}
	}
	return State{Authenticated: true, Claims: p.claims}
}

func (p *StaticProvider) Ready() bool { return p.State().Authenticated }

func (p *StaticProvider) AccessToken(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == "" {
		return "", ErrNotAuthenticated
	}
	return p.token, nil
}

// Login succeeds only while a token is configured.
func (p *StaticProvider) Login(context.Context, func(DeviceCode)) error {
	if !p.Ready() {
		return ErrNotAuthenticated
	}
	return nil
}

func (p *StaticProvider) Logout() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}
