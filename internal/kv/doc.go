// Package kv provides the client's persisted key-value state.
//
// The browser original kept token, username, and cart data in localStorage;
// here the same keys live behind the Store interface so the identity and
// cart layers are pure functions of an injected store and testable without
// real persistence.
//
// Two implementations exist:
//
//   - SQLiteStore: file-backed store shared between concurrent client
//     processes. Every mutation is recorded in a change journal and the
//     latest sequence number is mirrored to a sidecar feed file, which
//     watchers monitor to learn about other processes' writes (the analog
//     of the browser's cross-tab storage events).
//   - MemStore: map-backed store for tests.
//
// Cross-process coordination is last write wins. The journal tells an
// observer that a key changed, not what it changed to; observers re-read
// the store and re-render.
package kv
