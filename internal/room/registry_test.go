// internal/room/registry_test.go
package room

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[0-9A-Z]{4}$`)

func TestRegistryCreateCodes(t *testing.T) {
	g := newRegistry(newLockedRand(rand.NewSource(1)))
	now := time.Now()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		r, err := g.Create(now)
		require.NoError(t, err)
		assert.Regexp(t, codePattern, r.Code)
		assert.False(t, seen[r.Code], "code %s handed out twice", r.Code)
		seen[r.Code] = true
		assert.Equal(t, PhaseLobby, r.Phase)
	}
	assert.Equal(t, 200, g.Len())
}

func TestRegistryCreateRedrawsOnCollision(t *testing.T) {
	// Two registries with the same seed draw the same first code.
	first := newRegistry(newLockedRand(rand.NewSource(99)))
	r1, err := first.Create(time.Now())
	require.NoError(t, err)

	second := newRegistry(newLockedRand(rand.NewSource(99)))
	second.rooms[r1.Code] = newRoom(r1.Code, time.Now())

	r2, err := second.Create(time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, r1.Code, r2.Code)
	assert.Equal(t, 2, second.Len())
}

func TestRegistryGetNormalizesCode(t *testing.T) {
	g := newRegistry(newLockedRand(rand.NewSource(3)))
	r, err := g.Create(time.Now())
	require.NoError(t, err)

	lower := []byte(r.Code)
	for i, c := range lower {
		if c >= 'A' && c <= 'Z' {
			lower[i] = c + ('a' - 'A')
		}
	}
	got, ok := g.Get("  " + string(lower) + " ")
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = g.Get("NOPE")
	assert.False(t, ok)
}

func TestRegistryRemoveOnlyMatchingRoom(t *testing.T) {
	g := newRegistry(newLockedRand(rand.NewSource(5)))
	r, err := g.Create(time.Now())
	require.NoError(t, err)

	impostor := newRoom(r.Code, time.Now())
	g.Remove(impostor)
	_, ok := g.Get(r.Code)
	assert.True(t, ok, "removing a different room with the same code must not evict the live one")

	g.Remove(r)
	_, ok = g.Get(r.Code)
	assert.False(t, ok)
}

func TestRegistryListSorted(t *testing.T) {
	g := newRegistry(newLockedRand(rand.NewSource(11)))
	for i := 0; i < 10; i++ {
		_, err := g.Create(time.Now())
		require.NoError(t, err)
	}
	list := g.List()
	require.Len(t, list, 10)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Code, list[i].Code)
	}
}
