//go:build !integration

package redis

import (
	"testing"

	"captionSelector/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_UnreachableReportsAddress(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{RedisHost: "127.0.0.1", RedisPort: "1", RedisUsername: "selector"}}

	client, err := NewRedisClient(cfg)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestCloseRedisClient_Nil(t *testing.T) {
	assert.NoError(t, CloseRedisClient(nil))
}
