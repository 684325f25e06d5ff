// Package identity tracks who the client is acting as.
//
// The persisted state is two keys: token (an opaque bearer token) and
// username. Resolve derives a tagged Identity from them: anonymous when no
// usable token exists, authenticated otherwise, with the cart-keying ID and
// display name taken from the stored username or, failing that, from the
// token's decoded claims.
//
// Claims are decoded without signature verification. They exist purely so
// the UI can show a name and an admin affordance before the server has been
// asked; every real authorization decision happens server-side.
package identity
