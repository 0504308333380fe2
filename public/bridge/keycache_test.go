package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyCacheSeedAndSet(t *testing.T) {
	k := NewKeyCache()
	k.Seed(map[string]string{"LongFast": "AQ=="})

	key, ok := k.Get("LongFast")
	require.True(t, ok)
	require.Equal(t, "AQ==", key)

	k.Set("LongFast", "Ag==")
	key, _ = k.Get("LongFast")
	require.Equal(t, "Ag==", key)

	_, ok = k.Get("missing")
	require.False(t, ok)
}

func TestKeyCacheSnapshotIsACopy(t *testing.T) {
	k := NewKeyCache()
	k.Set("LongFast", "AQ==")

	snap := k.Snapshot()
	snap["LongFast"] = "tampered"
	snap["New"] = "x"

	key, _ := k.Get("LongFast")
	require.Equal(t, "AQ==", key)
	_, ok := k.Get("New")
	require.False(t, ok)
}

func TestSubscriptionSet(t *testing.T) {
	s := NewSubscriptionSet()
	require.True(t, s.Add("b"))
	require.True(t, s.Add("a"))
	require.False(t, s.Add("a"))
	require.Equal(t, 2, s.Len())
	require.Equal(t, []string{"a", "b"}, s.List())

	require.True(t, s.Remove("a"))
	require.False(t, s.Remove("a"))
	require.Equal(t, []string{"b"}, s.List())
}
