package ipcserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectRateLimiterAllowsUpToMax(t *testing.T) {
	r := newConnectRateLimiter(3, time.Minute)

	require.True(t, r.allow(1))
	require.True(t, r.allow(1))
	require.True(t, r.allow(1))
	require.False(t, r.allow(1))
}

func TestConnectRateLimiterTracksUIDsIndependently(t *testing.T) {
	r := newConnectRateLimiter(1, time.Minute)

	require.True(t, r.allow(1))
	require.True(t, r.allow(2))
	require.False(t, r.allow(1))
}

func TestConnectRateLimiterExpiresOldAttempts(t *testing.T) {
	r := newConnectRateLimiter(1, 10*time.Millisecond)

	require.True(t, r.allow(1))
	require.False(t, r.allow(1))

	time.Sleep(20 * time.Millisecond)
	require.True(t, r.allow(1))
}
