// Package cart holds the client-side shopping cart.
//
// Each identity owns one cart, stored as a JSON array of line items under a
// key derived from that identity: cart_user_<id> for authenticated users,
// cart_guest otherwise. At most one line item exists per product; repeat
// adds increment its quantity. Every mutation persists immediately.
//
// On login the guest cart is merged into the user's cart (quantities summed
// per product) and the guest key is deleted, so items picked while browsing
// anonymously survive authentication.
package cart
