package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	schema := Schema{Fields: []Field{
		{Name: "user", Kind: "string", Required: true},
		{Name: "port", Kind: "number"},
		{Name: "tls", Kind: "bool"},
		{Name: "extra", Kind: "object"},
	}}

	require.NoError(t, schema.Validate(map[string]any{"user": "alice"}))
	require.NoError(t, schema.Validate(map[string]any{
		"user": "alice", "port": float64(8443), "tls": true,
		"extra": map[string]any{"k": "v"},
	}))

	err := schema.Validate(map[string]any{})
	require.ErrorContains(t, err, `"user" is required`)

	err = schema.Validate(map[string]any{"user": 7})
	require.ErrorContains(t, err, "must be a string")

	err = schema.Validate(map[string]any{"user": "a", "tls": "yes"})
	require.ErrorContains(t, err, "must be a bool")
}

func TestNew_UnknownProtocol(t *testing.T) {
	_, err := New("does-not-exist", Options{})
	require.ErrorContains(t, err, "unknown protocol")
}

type staticUser struct{ id, name string }

func (u staticUser) ID() string          { return u.id }
func (u staticUser) DisplayName() string { return u.name }

func TestDirectory_CachesLookups(t *testing.T) {
	calls := 0
	d := NewDirectory(func(id string) (User, bool) {
		calls++
		if id == "u1" {
			return staticUser{id: "u1", name: "Alice"}, true
		}
		return nil, false
	})

	require.Equal(t, "Alice", d.DisplayName("u1"))
	require.Equal(t, "Alice", d.DisplayName("u1"))
	require.Equal(t, 1, calls, "second lookup must hit the cache")

	// Unknown users fall back to the id and are not cached.
	require.Equal(t, "ghost", d.DisplayName("ghost"))
	require.Equal(t, "ghost", d.DisplayName("ghost"))
	require.Equal(t, 3, calls)

	d.Invalidate("u1")
	require.Equal(t, "Alice", d.DisplayName("u1"))
	require.Equal(t, 4, calls)
}
