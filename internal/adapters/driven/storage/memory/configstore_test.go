package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Getters(t *testing.T) {
	s := NewConfigStore()

	require.NoError(t, s.Set("gateway.base_url", "http://gw"))
	require.NoError(t, s.Set("scan.min_votes", int64(5)))
	require.NoError(t, s.Set("scan.vote_threshold", 0.6))
	require.NoError(t, s.Set("recording.remove_people", true))
	require.NoError(t, s.Set("scan.dwell", "750ms"))
	require.NoError(t, s.Set("navigation.interval", time.Second))
	require.NoError(t, s.Set("tags", []any{"a", 1, "b"}))

	assert.Equal(t, "http://gw", s.GetString("gateway.base_url"))
	assert.Equal(t, 5, s.GetInt("scan.min_votes"))
	assert.Equal(t, 5.0, s.GetFloat("scan.min_votes"))
	assert.Equal(t, 0.6, s.GetFloat("scan.vote_threshold"))
	assert.True(t, s.GetBool("recording.remove_people"))
	assert.Equal(t, 750*time.Millisecond, s.GetDuration("scan.dwell"))
	assert.Equal(t, time.Second, s.GetDuration("navigation.interval"))
	assert.Equal(t, []string{"a", "b"}, s.GetStringSlice("tags"))
}

func TestConfigStore_Missing(t *testing.T) {
	s := NewConfigStore()

	_, ok := s.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, "", s.GetString("nope"))
	assert.Equal(t, 0, s.GetInt("nope"))
	assert.Equal(t, 0.0, s.GetFloat("nope"))
	assert.False(t, s.GetBool("nope"))
	assert.Equal(t, time.Duration(0), s.GetDuration("nope"))
	assert.Nil(t, s.GetStringSlice("nope"))
	assert.NoError(t, s.Save())
	assert.NoError(t, s.Load())
	assert.Equal(t, ":memory:", s.Path())
}
