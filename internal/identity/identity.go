// ABOUTME: Token/username persistence and identity resolution over the kv store
// ABOUTME: Provides the single resolveIdentity used by cart, session, and API layers

package identity

import (
	"fmt"

	"github.com/vegshop/shopfront/internal/kv"
)

// Storage keys, shared with every process using the same store.
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// Identity is the current authentication state. The zero value is anonymous.
type Identity struct {
	Authenticated bool
	// CartID keys this identity's cart; empty for anonymous.
	CartID string
	// Name is the display name; empty for anonymous.
	Name string
	// Roles come from the token claims and are display hints only.
	Roles []string
}

// Store wraps the token and username keys of a kv.Store. It performs no
// network calls; its only side effect is the persisted store.
type Store struct {
	kv kv.Store
}

// NewStore creates an identity store over the given kv store.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// GetToken returns the persisted token, or empty.
func (s *Store) GetToken() string {
	token, err := s.kv.Get(KeyToken)
	if err != nil {
		return ""
	}
	return token
}

// GetUsername returns the persisted username, or empty.
func (s *Store) GetUsername() string {
	username, err := s.kv.Get(KeyUsername)
	if err != nil {
		return ""
	}
	return username
}

// SetIdentity persists the token, and the username if supplied. An empty
// username leaves any prior username untouched.
func (s *Store) SetIdentity(token, username string) error {
	if err := s.kv.Set(KeyToken, token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	if username != "" {
		if err := s.kv.Set(KeyUsername, username); err != nil {
			return fmt.Errorf("persisting username: %w", err)
		}
	}
	return nil
}

// ClearIdentity removes both keys. Cart data is not touched.
func (s *Store) ClearIdentity() error {
	if err := s.kv.Remove(KeyToken); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	if err := s.kv.Remove(KeyUsername); err != nil {
		return fmt.Errorf("removing username: %w", err)
	}
	return nil
}

// TokenUsable reports whether a token string counts as present. Stores
// polluted by a serialized nil end up holding the literal strings "null"
// or "undefined"; those are treated as absent.
func TokenUsable(token string) bool {
	return token != "" && token != "null" && token != "undefined"
}

// Resolve derives the current Identity from the persisted state. The
// identity is authenticated iff a usable token is present. A stored
// username takes precedence over token claims for both the cart key and
// the display name.
func (s *Store) Resolve() Identity {
	token := s.GetToken()
	if !TokenUsable(token) {
		return Identity{}
	}

	claims := DecodeClaims(token)
	id := Identity{
		Authenticated: true,
		Roles:         claims.Roles(),
	}

	if username := s.GetUsername(); username != "" {
		id.CartID = username
		id.Name = username
		return id
	}

	id.CartID = claims.CartID()
	id.Name = claims.DisplayName()
	return id
}
