// ABOUTME: Tests for cart persistence and mutation
// ABOUTME: Covers add/increment, quantity changes, merge semantics, and corrupt data

package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegshop/shopfront/internal/identity"
	"github.com/vegshop/shopfront/internal/kv"
)

func newTestCart(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	store := kv.NewMemStore()
	return NewStore(store, identity.NewStore(store)), store
}

func loginAs(t *testing.T, store kv.Store, username string) {
	t.Helper()
	require.NoError(t, store.Set(identity.KeyToken, "opaque-token"))
	require.NoError(t, store.Set(identity.KeyUsername, username))
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "cart_guest", KeyFor(identity.Identity{}))
	assert.Equal(t, "cart_user_alice",
		KeyFor(identity.Identity{Authenticated: true, CartID: "alice"}))
	// Authenticated but no derivable id still falls back to guest
	assert.Equal(t, "cart_guest", KeyFor(identity.Identity{Authenticated: true}))
}

func TestStore_AddItem_IncrementsExisting(t *testing.T) {
	carts, _ := newTestCart(t)

	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))

	items := carts.Get()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Tomato", items[0].Name)
}

func TestStore_AddItem_CapturesPriceAtAddTime(t *testing.T) {
	carts, _ := newTestCart(t)

	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	// Catalog price changed; the line item keeps the add-time price
	require.NoError(t, carts.AddItem("7", "Tomato", 9.99))

	items := carts.Get()
	require.Len(t, items, 1)
	assert.Equal(t, 2.50, items[0].Price)
}

func TestStore_ChangeQuantity(t *testing.T) {
	carts, _ := newTestCart(t)
	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	require.NoError(t, carts.AddItem("8", "Onion", 1.00))

	require.NoError(t, carts.ChangeQuantity("7", 2))
	items := carts.Get()
	assert.Equal(t, 3, items[0].Quantity)

	// Decrement to zero removes the line item
	require.NoError(t, carts.ChangeQuantity("8", -1))
	items = carts.Get()
	require.Len(t, items, 1)
	assert.Equal(t, "7", items[0].ProductID)

	// Unknown product is a no-op
	require.NoError(t, carts.ChangeQuantity("999", 5))
	assert.Len(t, carts.Get(), 1)
}

func TestStore_RemoveItem(t *testing.T) {
	carts, _ := newTestCart(t)
	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	require.NoError(t, carts.ChangeQuantity("7", 4))

	require.NoError(t, carts.RemoveItem("7"))
	assert.Empty(t, carts.Get())

	require.NoError(t, carts.RemoveItem("7")) // already gone
}

func TestStore_PerIdentityCarts(t *testing.T) {
	carts, store := newTestCart(t)

	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	assert.Equal(t, "cart_guest", carts.CurrentKey())

	loginAs(t, store, "alice")
	assert.Equal(t, "cart_user_alice", carts.CurrentKey())
	assert.Empty(t, carts.Get(), "alice starts with her own empty cart")

	require.NoError(t, carts.AddItem("9", "Leek", 3.00))
	require.NoError(t, store.Remove(identity.KeyToken))
	require.NoError(t, store.Remove(identity.KeyUsername))

	// Back to the guest cart, untouched
	items := carts.Get()
	require.Len(t, items, 1)
	assert.Equal(t, "7", items[0].ProductID)
}

func TestStore_MergeGuestIntoUser(t *testing.T) {
	carts, store := newTestCart(t)

	// Guest picks A x2 and B x1
	require.NoError(t, carts.AddItem("A", "Apple", 1.00))
	require.NoError(t, carts.ChangeQuantity("A", 1))
	require.NoError(t, carts.AddItem("B", "Banana", 0.50))

	// Alice already has A x1 from an earlier session
	require.NoError(t, store.Set(UserKey("alice"),
		`[{"productId":"A","name":"Apple","price":1.00,"quantity":1}]`))

	require.NoError(t, carts.MergeGuestIntoUser("alice"))

	loginAs(t, store, "alice")
	items := carts.Get()
	require.Len(t, items, 2)
	byID := map[string]int{}
	for _, item := range items {
		byID[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[string]int{"A": 3, "B": 1}, byID)

	// Guest cart key is gone entirely
	_, err := store.Get(GuestKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	// Second merge finds no guest cart and is a no-op
	require.NoError(t, carts.MergeGuestIntoUser("alice"))
	assert.Len(t, carts.Get(), 2)
}

func TestStore_MergeWithEmptyUserCart(t *testing.T) {
	carts, store := newTestCart(t)
	require.NoError(t, carts.AddItem("A", "Apple", 1.00))

	require.NoError(t, carts.MergeGuestIntoUser("bob"))

	raw, err := store.Get(UserKey("bob"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"A","name":"Apple","price":1,"quantity":1}]`, raw)
}

func TestStore_CorruptCartJSON(t *testing.T) {
	carts, store := newTestCart(t)
	require.NoError(t, store.Set(GuestKey, "{not json"))

	assert.Empty(t, carts.Get())

	// A mutation over the corrupt cart starts fresh rather than failing
	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	assert.Len(t, carts.Get(), 1)
}

func TestStore_RoundTrip(t *testing.T) {
	carts, _ := newTestCart(t)

	want := []LineItem{
		{ProductID: "7", Name: "Tomato", Price: 2.50, Quantity: 2},
		{ProductID: "8", Name: "Onion", Price: 1.25, Quantity: 1},
	}
	require.NoError(t, carts.Set(want))
	assert.Equal(t, want, carts.Get())
}

func TestStore_OnCountCallback(t *testing.T) {
	carts, _ := newTestCart(t)

	var counts []int
	carts.OnCount = func(n int) { counts = append(counts, n) }

	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	require.NoError(t, carts.AddItem("7", "Tomato", 2.50))
	require.NoError(t, carts.RemoveItem("7"))

	assert.Equal(t, []int{1, 2, 0}, counts)
}

func TestCountAndTotal(t *testing.T) {
	items := []LineItem{
		{ProductID: "7", Price: 2.50, Quantity: 2},
		{ProductID: "8", Price: 1.25, Quantity: 4},
	}
	assert.Equal(t, 6, Count(items))
	assert.InDelta(t, 10.0, Total(items), 1e-9)
	assert.Equal(t, 0, Count(nil))
}
