package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/five82/dxportal/internal/state"
)

// Claims is the claim bag returned by the identity provider's userinfo
// endpoint. Portal claims are namespaced by the API server's host.
type Claims map[string]any

// Namespace returns the claim prefix for server. A scheme or trailing
// slash on server is ignored.
func Namespace(server string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(server, "https://"), "http://")
	return "https://" + strings.TrimRight(host, "/")
}

// String returns a top-level string claim such as "name" or "email".
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Subject is the "sub" claim.
func (c Claims) Subject() string { return c.String("sub") }

// DisplayName prefers the name claim and falls back to the email.
func (c Claims) DisplayName() string {
	if name := c.String("name"); name != "" {
		return name
	}
	return c.String("email")
}

// ScreenAccess decodes the navigation links granted to the user. A missing
// claim yields no links.
func (c Claims) ScreenAccess(server string) ([]state.Link, error) {
	var links []state.Link
	if _, err := c.decode(Namespace(server)+"/userScreenAccess", &links); err != nil {
		return nil, err
	}
	return links, nil
}

// Settings decodes the user's display settings. ok is false when the claim
// is absent.
func (c Claims) Settings(server string) (settings state.Settings, ok bool, err error) {
	ok, err = c.decode(Namespace(server)+"/settings", &settings)
	return settings, ok, err
}

func (c Claims) decode(name string, out any) (bool, error) {
	raw, ok := c[name]
	if !ok || raw == nil {
		return false, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false, fmt.Errorf("encode claim %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode claim %s: %w", name, err)
	}
	return true, nil
}
