// ABOUTME: Tests for the SQLite key-value store
// ABOUTME: Covers get/set/remove/keys, reopen persistence, and the change journal

package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SetGet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("token", "abc"))
	got, err := s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	// Overwrite
	require.NoError(t, s.Set("token", "def"))
	got, err = s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "def", got)
}

func TestSQLiteStore_Remove(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("username", "alice"))
	require.NoError(t, s.Remove("username"))

	_, err := s.Get("username")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing a missing key is not an error
	assert.NoError(t, s.Remove("username"))
}

func TestSQLiteStore_Keys(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("cart_guest", "[]"))
	require.NoError(t, s.Set("cart_user_alice", "[]"))
	require.NoError(t, s.Set("cart_user_bob", "[]"))
	require.NoError(t, s.Set("token", "t"))

	keys, err := s.Keys("cart_user_")
	require.NoError(t, err)
	assert.Equal(t, []string{"cart_user_alice", "cart_user_bob"}, keys)

	all, err := s.Keys("")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("username", "alice"))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get("username")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	// A reopened store gets a fresh origin
	assert.NotEqual(t, s.Origin(), s2.Origin())
}

func TestSQLiteStore_ChangeJournal(t *testing.T) {
	s := newTestStore(t)

	seq, err := s.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.Set("token", "abc"))
	require.NoError(t, s.Set("username", "alice"))
	require.NoError(t, s.Remove("token"))

	changes, last, err := s.ChangesSince(0)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, int64(3), last)

	assert.Equal(t, "token", changes[0].Key)
	assert.Equal(t, OpSet, changes[0].Op)
	assert.Equal(t, "username", changes[1].Key)
	assert.Equal(t, "token", changes[2].Key)
	assert.Equal(t, OpRemove, changes[2].Op)

	for _, c := range changes {
		assert.Equal(t, s.Origin(), c.Origin)
	}

	// Incremental read picks up only the tail
	require.NoError(t, s.Set("cart_guest", "[]"))
	tail, last, err := s.ChangesSince(last)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(4), last)
	assert.Equal(t, "cart_guest", tail[0].Key)
}

func TestSQLiteStore_FeedFile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("token", "abc"))

	data, err := os.ReadFile(s.FeedPath())
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	require.NoError(t, s.Set("token", "def"))
	data, err = os.ReadFile(s.FeedPath())
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))
}

func TestSQLiteStore_TwoStoresSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	a, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set("username", "alice"))

	// The other handle observes the write and can attribute its origin
	got, err := b.Get("username")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	changes, _, err := b.ChangesSince(0)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, a.Origin(), changes[0].Origin)
	assert.NotEqual(t, b.Origin(), changes[0].Origin)
}

func TestMemStore(t *testing.T) {
	m := NewMemStore()

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set("a", "1"))
	require.NoError(t, m.Set("ab", "2"))
	require.NoError(t, m.Set("b", "3"))

	got, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	keys, err := m.Keys("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab"}, keys)

	require.NoError(t, m.Remove("a"))
	_, err = m.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
}
