package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAdmitReplacesExistingEntry(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	first := &Client{Identity: "a@x.com"}
	second := &Client{Identity: "a@x.com"}

	require.Nil(t, r.Admit("a@x.com", first, now))
	superseded := r.Admit("a@x.com", second, now)

	assert.Same(t, first, superseded)
	assert.Equal(t, 1, r.Len())

	current, ok := r.Lookup("a@x.com")
	require.True(t, ok)
	assert.Same(t, second, current)
}

func TestRegistryEvictIsGuarded(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	old := &Client{Identity: "a@x.com"}
	current := &Client{Identity: "a@x.com"}
	r.Admit("a@x.com", old, now)
	r.Admit("a@x.com", current, now)

	// A late disconnect for the superseded connection must not remove the
	// newer entry.
	assert.False(t, r.Evict("a@x.com", old))
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Evict("a@x.com", current))
	assert.Equal(t, 0, r.Len())

	// Evicting again is a no-op.
	assert.False(t, r.Evict("a@x.com", current))
}

func TestRegistryTouchIsGuarded(t *testing.T) {
	r := NewRegistry()
	base := time.Now()

	old := &Client{Identity: "a@x.com"}
	current := &Client{Identity: "a@x.com"}
	r.Admit("a@x.com", old, base)
	r.Admit("a@x.com", current, base)

	// A stale heartbeat must not revive a superseded entry.
	assert.False(t, r.Touch("a@x.com", old, base.Add(time.Minute)))
	assert.True(t, r.Touch("a@x.com", current, base.Add(time.Minute)))
	assert.False(t, r.Touch("b@x.com", current, base.Add(time.Minute)))
}

func TestRegistryStale(t *testing.T) {
	r := NewRegistry()
	base := time.Now()

	quiet := &Client{Identity: "quiet@x.com"}
	active := &Client{Identity: "active@x.com"}
	r.Admit("quiet@x.com", quiet, base)
	r.Admit("active@x.com", active, base)
	r.Touch("active@x.com", active, base.Add(time.Minute))

	stale := r.Stale(base.Add(30 * time.Second))
	require.Len(t, stale, 1)
	assert.Same(t, quiet, stale[0])

	assert.Empty(t, r.Stale(base.Add(-time.Second)))
}

func TestRegistryIdentitiesSnapshot(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	r.Admit("a@x.com", &Client{Identity: "a@x.com"}, now)
	r.Admit("b@x.com", &Client{Identity: "b@x.com"}, now)

	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, r.Identities())
	assert.Equal(t, 2, r.Len())
}
