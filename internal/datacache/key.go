package datacache

import (
	"encoding/json"
	"fmt"
)

// Key identifies one logical remote fetch: an endpoint path followed by
// optional cache busters. The zero Key is the null key and never fetches.
type Key struct {
	parts []any
}

// NullKey is the key that means "do not fetch".
var NullKey = Key{}

// NewKey builds a key for endpoint. An empty endpoint yields the null key.
func NewKey(endpoint string, extra ...any) Key {
	if endpoint == "" {
		return NullKey
	}
	parts := make([]any, 0, len(extra)+1)
	parts = append(parts, endpoint)
	parts = append(parts, extra...)
	return Key{parts: parts}
}

// IsNull reports whether k is the null key.
func (k Key) IsNull() bool {
	return len(k.parts) == 0
}

// Endpoint returns the endpoint path, the first element of the key.
func (k Key) Endpoint() string {
	if k.IsNull() {
		return ""
	}
	s, _ := k.parts[0].(string)
	return s
}

// Extra returns a copy of the cache busters following the endpoint.
func (k Key) Extra() []any {
	if len(k.parts) < 2 {
		return nil
	}
	out := make([]any, len(k.parts)-1)
	copy(out, k.parts[1:])
	return out
}

// describe names key for logs: the endpoint, then any busters.
func describe(k Key) string {
	if extra := k.Extra(); len(extra) > 0 {
		return fmt.Sprintf("%s %v", k.Endpoint(), extra)
	}
	return k.Endpoint()
}

// Equal reports structural equality.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// String serializes the key structurally. Equal keys serialize identically.
func (k Key) String() string {
	if k.IsNull() {
		return "null"
	}
	b, err := json.Marshal(k.parts)
	if err != nil {
		// Unmarshalable busters still need a stable identity.
		return fmt.Sprintf("%#v", k.parts)
	}
	return string(b)
}
