package redis

import (
	"context"
	"testing"

	"github.com/August1314/nicehouse/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), &config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.NoError(t, Close(client))
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), &config.RedisConfig{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
