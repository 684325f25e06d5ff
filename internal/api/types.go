// ABOUTME: Wire types for the storefront REST API
// ABOUTME: Tolerant decoding for product IDs, role lists, and login payload variants

package api

import (
	"encoding/json"

	"github.com/vegshop/shopfront/internal/identity"
)

// ProductID is a product identifier. Servers send it as a JSON number or a
// string; it is always handled as a string on this side.
type ProductID string

// UnmarshalJSON accepts both number and string forms.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*p = ProductID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = ProductID(s)
	return nil
}

// Product is a catalog entry as served by GET /api/products.
type Product struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price,omitempty"`
	Stock       int       `json:"stock,omitempty"`
	Category    string    `json:"category,omitempty"`
	Image       string    `json:"image,omitempty"`
}

// ProductInput is the JSON part of an admin create/update request. The
// product ID travels in the URL, not the body.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
}

// RoleList tolerates the role field shapes different backends use: a JSON
// array of strings or a single string.
type RoleList []string

// UnmarshalJSON accepts both array and single-string forms.
func (r *RoleList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*r = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = []string{one}
	return nil
}

// AuthResponse is the body of a successful login or register call.
type AuthResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	JWT         string `json:"jwt"`
	Username    string `json:"username"`
	User        *struct {
		Username string `json:"username"`
	} `json:"user"`
}

// ResolveToken returns the bearer token under whichever field the server
// used, or empty if the response carried none.
func (a *AuthResponse) ResolveToken() string {
	switch {
	case a.Token != "":
		return a.Token
	case a.AccessToken != "":
		return a.AccessToken
	default:
		return a.JWT
	}
}

// ResolveUsername returns the username from the response, falling back to
// the token claims.
func (a *AuthResponse) ResolveUsername() string {
	if a.Username != "" {
		return a.Username
	}
	if a.User != nil && a.User.Username != "" {
		return a.User.Username
	}
	return identity.DecodeClaims(a.ResolveToken()).DisplayName()
}

// MeResponse is the body of GET /api/auth/me.
type MeResponse struct {
	Username    string   `json:"username"`
	Roles       RoleList `json:"roles"`
	Authorities RoleList `json:"authorities"`
	Role        RoleList `json:"role"`
}

// RoleNames merges the role fields, preferring roles, then authorities,
// then role.
func (m *MeResponse) RoleNames() []string {
	switch {
	case len(m.Roles) > 0:
		return m.Roles
	case len(m.Authorities) > 0:
		return m.Authorities
	default:
		return m.Role
	}
}
