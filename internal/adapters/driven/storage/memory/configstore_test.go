package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SeededKeys(t *testing.T) {
	config := NewConfigStore()
	require.NoError(t, config.Set("storage.default", "remote"))
	require.NoError(t, config.Set("storage.backends", []string{"local", "remote"}))
	require.NoError(t, config.Set("storage.remote.use_ssl", true))
	require.NoError(t, config.Set("storage.remote.requests_per_second", 10))

	assert.Equal(t, "remote", config.GetString("storage.default"))
	assert.Equal(t, []string{"local", "remote"}, config.GetStringSlice("storage.backends"))
	assert.True(t, config.GetBool("storage.remote.use_ssl"))
	assert.Equal(t, 10, config.GetInt("storage.remote.requests_per_second"))
}

func TestConfigStore_UnseededKeysReturnZeroValues(t *testing.T) {
	config := NewConfigStore()

	_, ok := config.Get("storage.default")
	assert.False(t, ok)
	assert.Empty(t, config.GetString("storage.default"))
	assert.Zero(t, config.GetInt("storage.remote.requests_per_second"))
	assert.False(t, config.GetBool("storage.remote.use_ssl"))
	assert.Nil(t, config.GetStringSlice("storage.backends"))
}
