package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/dxportal/internal/auth"
	"github.com/five82/dxportal/internal/state"
)

type tenant struct {
	approveAfter int32
	deny         bool
	polls        atomic.Int32
	audience     atomic.Value
}

func (tn *tenant) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		tn.audience.Store(r.PostForm.Get("audience"))
		writeJSON(w, http.StatusOK, map[string]any{
			"device_code":               "dev-123",
			"user_code":                 "ABCD-EFGH",
			"verification_uri":          "https://login.example/activate",
			"verification_uri_complete": "https://login.example/activate?user_code=ABCD-EFGH",
			"expires_in":                60,
			"interval":                  1,
		})
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		n := tn.polls.Add(1)
		if tn.deny {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error":             "access_denied",
				"error_description": "Unauthorized",
			})
			return
		}
		if n <= tn.approveAfter {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "authorization_pending"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "tok-1",
			"refresh_token": "ref-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sub":  "auth0|42",
			"name": "Ada Lovelace",
			"https://api.example.com/userScreenAccess": []map[string]any{
				{"name": "Tests", "path": "/tests", "sortOrder": "1", "controlName": "Tests", "edit": true},
			},
			"https://api.example.com/settings": map[string]any{
				"dateFormat": "YYYY-MM-DD", "timeFormat": "24 hour", "timeZone": "UTC", "loginTimeout": "15",
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newProvider(t *testing.T, srv *httptest.Server) *auth.DeviceProvider {
	t.Helper()
	p, err := auth.NewDeviceProvider(auth.DeviceConfig{
		Domain:   srv.URL,
		ClientID: "client-1",
		Audience: "https://api.example.com",
		HTTP:     srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestDeviceProvider_Login(t *testing.T) {
	tn := &tenant{approveAfter: 1}
	p := newProvider(t, tn.server(t))

	assert.False(t, p.Ready())
	_, err := p.AccessToken(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	var prompted auth.DeviceCode
	require.NoError(t, p.Login(context.Background(), func(dc auth.DeviceCode) { prompted = dc }))

	assert.Equal(t, "ABCD-EFGH", prompted.UserCode)
	assert.Equal(t, "https://login.example/activate", prompted.VerificationURI)
	assert.Equal(t, "https://api.example.com", tn.audience.Load())
	assert.GreaterOrEqual(t, tn.polls.Load(), int32(2))

	assert.True(t, p.Ready())
	st := p.State()
	assert.True(t, st.Authenticated)
	assert.NoError(t, st.Err)
	assert.Equal(t, "Ada Lovelace", st.Claims.DisplayName())
	assert.Equal(t, "auth0|42", st.Claims.Subject())

	tok, err := p.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	links, err := st.Claims.ScreenAccess("api.example.com")
	require.NoError(t, err)
	assert.Equal(t, []state.Link{{Name: "Tests", Path: "/tests", SortOrder: "1", ControlName: "Tests", Edit: true}}, links)

	settings, ok, err := st.Claims.Settings("https://api.example.com/")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "YYYY-MM-DD", settings.DateFormat)
	assert.Equal(t, "UTC", settings.TimeZone)
	assert.Equal(t, float64(15), settings.IdleTimeout().Minutes())

	p.Logout()
	assert.False(t, p.Ready())
	_, err = p.AccessToken(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestDeviceProvider_LoginDenied(t *testing.T) {
	tn := &tenant{deny: true}
	p := newProvider(t, tn.server(t))

	err := p.Login(context.Background(), nil)
	require.Error(t, err)

	var ipe *auth.IdentityProviderError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "access_denied", ipe.Code)
	assert.True(t, auth.IsAccountRevoked(err))

	st := p.State()
	assert.False(t, st.Authenticated)
	assert.False(t, st.Loading)
	assert.Equal(t, err, st.Err)
	assert.False(t, p.Ready())
}

func TestNewDeviceProvider_RequiresTenant(t *testing.T) {
	_, err := auth.NewDeviceProvider(auth.DeviceConfig{ClientID: "c"})
	assert.Error(t, err)
	_, err = auth.NewDeviceProvider(auth.DeviceConfig{Domain: "tenant.example"})
	assert.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	p := auth.NewStaticProvider("fixed", auth.Claims{"name": "ops"})
	assert.True(t, p.Ready())
	require.NoError(t, p.Login(context.Background(), nil))

	tok, err := p.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", tok)
	assert.Equal(t, "ops", p.State().Claims.DisplayName())

	p.Logout()
	assert.False(t, p.Ready())
	assert.ErrorIs(t, p.Login(context.Background(), nil), auth.ErrNotAuthenticated)
}

func TestIsAccountRevoked(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain unauthorized", errors.New("Unauthorized"), false},
		{"provider unauthorized", &auth.IdentityProviderError{Op: "login", Description: "Unauthorized"}, true},
		{"provider other", &auth.IdentityProviderError{Op: "login", Description: "expired_token"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsAccountRevoked(tt.err))
		})
	}
}

func TestClaimsMissing(t *testing.T) {
	var c auth.Claims
	links, err := c.ScreenAccess("api.example.com")
	require.NoError(t, err)
	assert.Empty(t, links)

	_, ok, err := c.Settings("api.example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "https://api.example.com", auth.Namespace("http://api.example.com/"))
}
