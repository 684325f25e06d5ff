// ABOUTME: Cart persistence and mutation over the kv store
// ABOUTME: Implements add/changeQuantity/remove and the guest-into-user merge

package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vegshop/shopfront/internal/identity"
	"github.com/vegshop/shopfront/internal/kv"
)

// Store owns all cart data in the kv store. Carts are mutated only through
// its methods and persisted immediately on every mutation.
type Store struct {
	kv     kv.Store
	ids    *identity.Store
	logger *slog.Logger

	// OnCount, when set, is called with the new item count after every
	// persist. The UI uses it to refresh its cart badge.
	OnCount func(count int)
}

// NewStore creates a cart store sharing the kv store with the identity store.
func NewStore(store kv.Store, ids *identity.Store) *Store {
	return &Store{
		kv:     store,
		ids:    ids,
		logger: slog.Default().With("component", "cart"),
	}
}

// CurrentKey returns the storage key of the active cart, derived from the
// current identity.
func (s *Store) CurrentKey() string {
	return KeyFor(s.ids.Resolve())
}

// Get reads the active cart. Corrupt persisted JSON is treated as an empty
// cart: it is logged and never surfaced to the caller.
func (s *Store) Get() []LineItem {
	return s.read(s.CurrentKey())
}

// read loads and parses the cart under key.
func (s *Store) read(key string) []LineItem {
	raw, err := s.kv.Get(key)
	if err != nil {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("invalid cart JSON, treating as empty", "key", key, "error", err)
		return nil
	}
	return items
}

// Set serializes items and persists them under the active cart key, then
// reports the new count.
func (s *Store) Set(items []LineItem) error {
	return s.write(s.CurrentKey(), items)
}

// write persists items under key.
func (s *Store) write(key string, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serializing cart: %w", err)
	}
	if err := s.kv.Set(key, string(raw)); err != nil {
		return fmt.Errorf("persisting cart %q: %w", key, err)
	}
	if s.OnCount != nil {
		s.OnCount(Count(items))
	}
	return nil
}

// AddItem adds one unit of the product to the active cart: an existing line
// item has its quantity incremented, otherwise a new line item with
// quantity 1 is appended. Name and price are captured as passed.
func (s *Store) AddItem(productID, name string, price float64) error {
	items := s.Get()
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity++
			return s.Set(items)
		}
	}
	items = append(items, LineItem{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Quantity:  1,
	})
	return s.Set(items)
}

// ChangeQuantity adds delta to the quantity of the matching line item. A
// missing product is a no-op; a resulting quantity of zero or less removes
// the line item.
func (s *Store) ChangeQuantity(productID string, delta int) error {
	items := s.Get()
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		items[i].Quantity += delta
		if items[i].Quantity <= 0 {
			items = append(items[:i], items[i+1:]...)
		}
		return s.Set(items)
	}
	return nil
}

// RemoveItem removes the matching line item regardless of quantity.
func (s *Store) RemoveItem(productID string) error {
	items := s.Get()
	for i := range items {
		if items[i].ProductID == productID {
			items = append(items[:i], items[i+1:]...)
			return s.Set(items)
		}
	}
	return nil
}

// MergeGuestIntoUser folds the guest cart into the named user's cart and
// deletes the guest cart key. Quantities are summed where both carts hold
// the same product; guest-only items are inserted after the user's items.
// Called once after a successful login; a second call finds an empty guest
// cart and does nothing.
func (s *Store) MergeGuestIntoUser(username string) error {
	if username == "" {
		return nil
	}
	guest := s.read(GuestKey)
	if len(guest) == 0 {
		return nil
	}

	userKey := UserKey(username)
	merged := s.read(userKey)
	index := make(map[string]int, len(merged))
	for i, item := range merged {
		index[item.ProductID] = i
	}
	for _, g := range guest {
		if i, ok := index[g.ProductID]; ok {
			merged[i].Quantity += g.Quantity
		} else {
			index[g.ProductID] = len(merged)
			merged = append(merged, g)
		}
	}

	if err := s.write(userKey, merged); err != nil {
		return fmt.Errorf("merging guest cart: %w", err)
	}
	if err := s.kv.Remove(GuestKey); err != nil {
		return fmt.Errorf("clearing guest cart: %w", err)
	}
	return nil
}
