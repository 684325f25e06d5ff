// ABOUTME: Unverified JWT claims decoding for UI convenience
// ABOUTME: Extracts id/name/role claims without validating the token signature

package identity

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a bearer token. The signature is never
// checked: these values drive client-side display and cart keying only and
// confer no trust. Any authorization decision is re-validated server-side.
type Claims map[string]any

// DecodeClaims splits the token into its three segments, base64url-decodes
// the payload, and parses it as a JSON object. It returns nil for any
// malformed input: missing segments, bad encoding, non-object payload.
// Only the payload segment is decoded; header and signature are ignored.
func DecodeClaims(token string) Claims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(parts[1])
	if err != nil {
		return nil
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	return claims
}

// str returns the named claim if it is a non-empty string.
func (c Claims) str(name string) string {
	if c == nil {
		return ""
	}
	if s, ok := c[name].(string); ok {
		return s
	}
	return ""
}

// first returns the first non-empty string claim among names.
func (c Claims) first(names ...string) string {
	for _, n := range names {
		if s := c.str(n); s != "" {
			return s
		}
	}
	return ""
}

// CartID returns the claim used to key this identity's cart:
// sub, then username, then name, then id.
func (c Claims) CartID() string {
	return c.first("sub", "username", "name", "id")
}

// DisplayName returns the claim shown in the authenticated UI:
// username, then sub, then name.
func (c Claims) DisplayName() string {
	return c.first("username", "sub", "name")
}

// Roles returns the role claims as a string slice. Servers differ on both
// the claim name (roles, authorities, role) and the shape (array or single
// string); all forms are accepted.
func (c Claims) Roles() []string {
	if c == nil {
		return nil
	}
	for _, name := range []string{"roles", "authorities", "role"} {
		v, ok := c[name]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			return []string{t}
		case []any:
			roles := make([]string, 0, len(t))
			for _, r := range t {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
			return roles
		}
	}
	return nil
}
