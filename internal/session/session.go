// ABOUTME: Auth-state synchronizer reconciling UI and cart state with identity changes
// ABOUTME: Two-state machine (anonymous/authenticated) with idempotent re-render

package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vegshop/shopfront/internal/cart"
	"github.com/vegshop/shopfront/internal/identity"
)

// ErrNoToken is returned by HandleLogin when the auth response carried no
// usable token. Some servers answer a successful registration this way; the
// account exists but the client stays anonymous until an explicit login.
var ErrNoToken = errors.New("auth response carried no token")

// View is the UI surface the synchronizer reconciles. Implementations must
// tolerate repeated calls with the same arguments: the synchronizer
// re-renders on every signal rather than tracking deltas.
type View interface {
	// ShowAuthenticated reveals the identity-specific affordances.
	ShowAuthenticated(name string, admin bool)
	// ShowAnonymous reverts to the anonymous affordances.
	ShowAnonymous()
}

// Synchronizer moves the client between its two auth states and keeps the
// view and cart store consistent with the current identity.
type Synchronizer struct {
	ids    *identity.Store
	carts  *cart.Store
	view   View
	logger *slog.Logger
}

// New creates a synchronizer over the given stores and view.
func New(ids *identity.Store, carts *cart.Store, view View) *Synchronizer {
	return &Synchronizer{
		ids:    ids,
		carts:  carts,
		view:   view,
		logger: slog.Default().With("component", "session"),
	}
}

// Refresh re-derives the current identity and renders the matching state.
// Calling it any number of times with the same persisted identity produces
// the same visible state.
func (s *Synchronizer) Refresh() {
	id := s.ids.Resolve()
	if !id.Authenticated {
		s.view.ShowAnonymous()
		return
	}
	name := id.Name
	if name == "" {
		name = "Me"
	}
	s.view.ShowAuthenticated(name, IsAdmin(id.Roles))
}

// HandleLogin records a successful login or registration: it persists the
// identity, folds the guest cart into the user's cart, and re-renders.
// The merge runs only here, in the process that performed the login;
// observers of the change feed just re-render.
//
// A response without a usable token does not enter Authenticated: nothing
// is persisted, the guest cart stays active, and ErrNoToken is returned.
func (s *Synchronizer) HandleLogin(token, username string) error {
	if !identity.TokenUsable(token) {
		return ErrNoToken
	}
	if err := s.ids.SetIdentity(token, username); err != nil {
		return err
	}

	mergeUser := username
	if mergeUser == "" {
		mergeUser = s.ids.Resolve().CartID
	}
	if err := s.carts.MergeGuestIntoUser(mergeUser); err != nil {
		return fmt.Errorf("merging guest cart after login: %w", err)
	}

	s.Refresh()
	return nil
}

// Logout clears the identity and re-renders. Cart data stays persisted
// under its per-user key and becomes addressable again on the next login.
func (s *Synchronizer) Logout() error {
	if err := s.ids.ClearIdentity(); err != nil {
		return err
	}
	s.Refresh()
	return nil
}

// HandleUnauthorized is the 401 path: the session is invalid, so the
// identity is cleared and the UI reverts to anonymous. Cart keys are left
// untouched.
func (s *Synchronizer) HandleUnauthorized() {
	s.logger.Warn("session invalid, clearing identity")
	if err := s.ids.ClearIdentity(); err != nil {
		s.logger.Error("clearing identity failed", "error", err)
	}
	s.Refresh()
}

// WatchChanges subscribes the synchronizer to the change bus: any change to
// the token or username keys from another process triggers a re-render.
func (s *Synchronizer) WatchChanges(bus *Bus) {
	bus.Subscribe(func(c Event) {
		if c.Key == identity.KeyToken || c.Key == identity.KeyUsername {
			s.Refresh()
		}
	})
}

// IsAdmin reports whether any role name contains the substring "ADMIN",
// case-insensitively. This drives UI affordances only; the server makes
// the real call.
func IsAdmin(roles []string) bool {
	for _, r := range roles {
		if strings.Contains(strings.ToUpper(r), "ADMIN") {
			return true
		}
	}
	return false
}
