package redis_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	infraredis "github.com/jonesrussell/storetrust/infrastructure/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_EmptyAddress(t *testing.T) {
	t.Parallel()

	client, err := infraredis.NewClient(infraredis.Config{})

	require.ErrorIs(t, err, infraredis.ErrEmptyAddress)
	assert.Nil(t, client)
}

func TestNewClient_ConnectsToServer(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)

	client, err := infraredis.NewClient(infraredis.Config{Address: srv.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, infraredis.Ping(client))
}

func TestNewClient_UnreachableServer(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	client, err := infraredis.NewClient(infraredis.Config{Address: addr})

	require.Error(t, err)
	assert.Nil(t, client)
}

func TestPing_NilClient(t *testing.T) {
	t.Parallel()

	assert.Error(t, infraredis.Ping(nil))
}
