// Package session keeps the client's visible state consistent with its
// authentication state.
//
// The Synchronizer is a two-state machine. It enters Authenticated on a
// successful login or registration, or when the change feed reports that
// another process stored a token; it enters Anonymous on explicit logout,
// on any 401 response, or when the feed reports the token was cleared.
// Entering Authenticated reveals the identity UI, derives the admin
// affordance from the role claims, and merges the guest cart into the
// user's cart; entering Anonymous clears the identity and reverts the UI,
// leaving per-user cart data in place for the identity's return.
//
// Re-rendering is idempotent: the synchronizer always recomputes from the
// persisted identity, so repeated signals converge on the same view.
//
// The Watcher is the cross-tab analog: it tails the kv store's change
// journal (woken by fsnotify on the feed file) and publishes other
// processes' writes on a Bus. Coordination is last write wins; observers
// re-read and re-render, missed mutations are never replayed.
package session
