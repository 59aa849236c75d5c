//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"phishsim/internal/platform/config"
	platformredis "phishsim/internal/platform/redis"
	"phishsim/pkg/testutil/containers"
)

func TestPostgresPersisterAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)

	p := NewPostgresPersister(pg.DB, "it-"+t.Name())
	require.NoError(t, p.EnsureSchema(ctx))
	require.NoError(t, pg.Truncate(ctx, "phishsim_snapshots"))
	assertRoundTrip(t, p)
}

func TestRedisPersisterAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	assertRoundTrip(t, NewRedisPersister(rc.Client, "phishsim:it"))
}

func TestOpenOverPostgresMigratesAndPersists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)

	p := NewPostgresPersister(pg.DB, "it-open")
	require.NoError(t, p.EnsureSchema(ctx))

	s, err := Open(ctx, p)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, func(st *State) error { return nil }))

	doc, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestRedisPersisterThroughPlatformClient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	client, err := platformredis.New(ctx, config.RedisConfig{URL: rc.URL, PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Health(ctx))

	assertRoundTrip(t, NewRedisPersister(client, "phishsim:it:platform"))
}
