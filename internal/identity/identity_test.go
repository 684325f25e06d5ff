// ABOUTME: Tests for claims decoding and identity resolution
// ABOUTME: Covers malformed tokens, claim precedence, and the usable-token rule

package identity

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegshop/shopfront/internal/kv"
)

// signedToken builds a real HS256 token carrying the given claims.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// rawToken assembles a three-segment token from a raw payload, with a
// syntactically valid header and a dummy signature.
func rawToken(payload string) string {
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc([]byte(payload)) + ".sig"
}

func TestDecodeClaims_WellFormed(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "alice", "username": "alice"})

	claims := DecodeClaims(token)
	require.NotNil(t, claims)
	assert.Equal(t, "alice", claims["sub"])
}

func TestDecodeClaims_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no dots", "notatoken"},
		{"two segments", "aaa.bbb"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", "h." + "!!!not-base64!!!" + ".s"},
		{"payload not JSON", rawToken("not json")},
		{"payload JSON array", rawToken(`["ADMIN"]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, DecodeClaims(tt.token))
		})
	}
}

func TestDecodeClaims_PaddedPayload(t *testing.T) {
	// atob-style encoders emit padded base64url; accept it too
	enc := base64.URLEncoding.EncodeToString
	padded := enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(`{"sub":"padded"}`)) + "." + enc([]byte("sig"))

	got := DecodeClaims(padded)
	require.NotNil(t, got)
	assert.Equal(t, "padded", got["sub"])
}

func TestClaims_CartIDPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   string
	}{
		{"sub wins", Claims{"sub": "s", "username": "u", "name": "n", "id": "i"}, "s"},
		{"username next", Claims{"username": "u", "name": "n", "id": "i"}, "u"},
		{"name next", Claims{"name": "n", "id": "i"}, "n"},
		{"id last", Claims{"id": "i"}, "i"},
		{"none", Claims{"iat": 12345.0}, ""},
		{"nil claims", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.CartID())
		})
	}
}

func TestClaims_DisplayNamePrecedence(t *testing.T) {
	assert.Equal(t, "u", Claims{"sub": "s", "username": "u"}.DisplayName())
	assert.Equal(t, "s", Claims{"sub": "s", "name": "n"}.DisplayName())
	assert.Equal(t, "n", Claims{"name": "n"}.DisplayName())
}

func TestClaims_Roles(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   []string
	}{
		{"array", Claims{"roles": []any{"ROLE_USER", "ROLE_ADMIN"}}, []string{"ROLE_USER", "ROLE_ADMIN"}},
		{"single string", Claims{"roles": "ROLE_ADMIN"}, []string{"ROLE_ADMIN"}},
		{"authorities fallback", Claims{"authorities": []any{"ADMIN"}}, []string{"ADMIN"}},
		{"role fallback", Claims{"role": "admin"}, []string{"admin"}},
		{"absent", Claims{"sub": "x"}, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.Roles())
		})
	}
}

func TestTokenUsable(t *testing.T) {
	assert.True(t, TokenUsable("abc"))
	assert.False(t, TokenUsable(""))
	assert.False(t, TokenUsable("null"))
	assert.False(t, TokenUsable("undefined"))
}

func TestStore_SetIdentity(t *testing.T) {
	s := NewStore(kv.NewMemStore())

	require.NoError(t, s.SetIdentity("tok1", "alice"))
	assert.Equal(t, "tok1", s.GetToken())
	assert.Equal(t, "alice", s.GetUsername())

	// Empty username leaves the prior one untouched
	require.NoError(t, s.SetIdentity("tok2", ""))
	assert.Equal(t, "tok2", s.GetToken())
	assert.Equal(t, "alice", s.GetUsername())
}

func TestStore_ClearIdentity(t *testing.T) {
	s := NewStore(kv.NewMemStore())
	require.NoError(t, s.SetIdentity("tok", "alice"))

	require.NoError(t, s.ClearIdentity())
	assert.Empty(t, s.GetToken())
	assert.Empty(t, s.GetUsername())
}

func TestStore_Resolve(t *testing.T) {
	t.Run("anonymous without token", func(t *testing.T) {
		s := NewStore(kv.NewMemStore())
		assert.Equal(t, Identity{}, s.Resolve())
	})

	t.Run("anonymous with unusable token", func(t *testing.T) {
		store := kv.NewMemStore()
		require.NoError(t, store.Set(KeyToken, "null"))
		s := NewStore(store)
		assert.False(t, s.Resolve().Authenticated)
	})

	t.Run("stored username wins over claims", func(t *testing.T) {
		store := kv.NewMemStore()
		s := NewStore(store)
		token := signedToken(t, jwt.MapClaims{"sub": "claims-id"})
		require.NoError(t, s.SetIdentity(token, "alice"))

		id := s.Resolve()
		assert.True(t, id.Authenticated)
		assert.Equal(t, "alice", id.CartID)
		assert.Equal(t, "alice", id.Name)
	})

	t.Run("claims fill in when no username stored", func(t *testing.T) {
		store := kv.NewMemStore()
		token := signedToken(t, jwt.MapClaims{
			"sub":   "bob",
			"roles": []string{"ROLE_ADMIN"},
		})
		require.NoError(t, store.Set(KeyToken, token))

		id := NewStore(store).Resolve()
		assert.True(t, id.Authenticated)
		assert.Equal(t, "bob", id.CartID)
		assert.Equal(t, "bob", id.Name)
		assert.Equal(t, []string{"ROLE_ADMIN"}, id.Roles)
	})

	t.Run("opaque token still authenticates", func(t *testing.T) {
		store := kv.NewMemStore()
		require.NoError(t, store.Set(KeyToken, "opaque-session-token"))

		id := NewStore(store).Resolve()
		assert.True(t, id.Authenticated)
		assert.Empty(t, id.CartID)
	})
}
