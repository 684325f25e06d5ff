// ABOUTME: Cart line-item model and the persisted JSON format
// ABOUTME: Key derivation from Identity plus count/total helpers

package cart

import (
	"github.com/vegshop/shopfront/internal/identity"
)

// GuestKey is the storage key for the cart of an anonymous shopper.
const GuestKey = "cart_guest"

// UserKeyPrefix prefixes per-user cart keys.
const UserKeyPrefix = "cart_user_"

// LineItem is one product entry in a cart. Name and price are captured when
// the item is first added and are not refreshed from later catalog changes.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// KeyFor returns the storage key of the cart owned by the given identity.
// Exactly one cart is active at a time, selected solely by identity.
func KeyFor(id identity.Identity) string {
	if id.Authenticated && id.CartID != "" {
		return UserKeyPrefix + id.CartID
	}
	return GuestKey
}

// UserKey returns the storage key for the named user's cart.
func UserKey(username string) string {
	return UserKeyPrefix + username
}

// Count sums the quantities of all line items.
func Count(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Total sums price times quantity across all line items.
func Total(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
