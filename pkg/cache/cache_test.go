package cache

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGeneration(t *testing.T) {
	ctx := context.Background()
	g := NewLocalGeneration()

	n, err := g.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = g.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func newRedisGeneration(t *testing.T) (*RedisGeneration, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGeneration(client, ""), mr
}

func TestRedisGeneration(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGeneration(t)

	n, err := g.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "missing key reads as zero")

	n, err = g.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := mr.Get(DefaultRedisKey)
	require.NoError(t, err)
	assert.Equal(t, "1", stored)
}

func TestRedisGenerationSharedAcrossMemos(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = clientA.Close()
		_ = clientB.Close()
	})

	a := NewDecisions(NewRedisGeneration(clientA, "test:gen"), 0)
	b := NewDecisions(NewRedisGeneration(clientB, "test:gen"), 0)
	k := Key{Principal: "alice", Ability: "publish"}

	_, _, gen, err := b.Lookup(ctx, k)
	require.NoError(t, err)
	require.NoError(t, b.Store(ctx, k, true, gen))

	allowed, ok, _, err := b.Lookup(ctx, k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, allowed)

	require.NoError(t, a.Refresh(ctx))

	_, ok, _, err = b.Lookup(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok, "refresh in one process invalidates the other")
}

func TestRedisGenerationError(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGeneration(t)
	mr.Close()

	_, err := g.Current(ctx)
	assert.Error(t, err)
	_, err = g.Bump(ctx)
	assert.Error(t, err)
}

func TestDecisionsMemoizes(t *testing.T) {
	ctx := context.Background()
	d := NewDecisions(nil, 0)
	k := Key{Principal: "alice", Ability: "view", ResourceType: "user", ResourceID: "2"}

	_, ok, gen, err := d.Lookup(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Store(ctx, k, false, gen))
	allowed, ok, _, err := d.Lookup(ctx, k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, allowed)
	assert.Equal(t, 1, d.Len())
}

func TestDecisionsRefreshDropsEverything(t *testing.T) {
	ctx := context.Background()
	d := NewDecisions(NewLocalGeneration(), 0)

	for _, p := range []string{"alice", "bob"} {
		k := Key{Principal: p, Ability: "view"}
		_, _, gen, err := d.Lookup(ctx, k)
		require.NoError(t, err)
		require.NoError(t, d.Store(ctx, k, true, gen))
	}
	assert.Equal(t, 2, d.Len())

	require.NoError(t, d.Refresh(ctx))
	assert.Equal(t, 0, d.Len())
}

func TestDecisionsDropsResultsFromOldGeneration(t *testing.T) {
	ctx := context.Background()
	gen := NewLocalGeneration()
	d := NewDecisions(gen, 0)
	k := Key{Principal: "alice", Ability: "publish"}

	_, _, observed, err := d.Lookup(ctx, k)
	require.NoError(t, err)

	_, err = gen.Bump(ctx)
	require.NoError(t, err)

	require.NoError(t, d.Store(ctx, k, true, observed))
	_, ok, _, err := d.Lookup(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecisionsBounded(t *testing.T) {
	ctx := context.Background()
	d := NewDecisions(nil, 2)

	for _, p := range []string{"a", "b", "c"} {
		k := Key{Principal: p, Ability: "view"}
		_, _, gen, err := d.Lookup(ctx, k)
		require.NoError(t, err)
		require.NoError(t, d.Store(ctx, k, true, gen))
	}
	assert.LessOrEqual(t, d.Len(), 2)

	_, ok, _, err := d.Lookup(ctx, Key{Principal: "c", Ability: "view"})
	require.NoError(t, err)
	assert.True(t, ok, "latest entry survives the reset")
}
