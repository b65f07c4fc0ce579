package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fortuna/clueboard/internal/ingest"
)

func TestPageKey(t *testing.T) {
	a := PageKey("https://j-archive.com/showgame.php?game_id=1")
	b := PageKey("https://j-archive.com/showgame.php?game_id=2")

	require.True(t, strings.HasPrefix(a, PageKeyPrefix))
	require.Len(t, a, len(PageKeyPrefix)+40)
	require.NotEqual(t, a, b)
	require.Equal(t, a, PageKey("https://j-archive.com/showgame.php?game_id=1"))
}

func TestErrMissMatchesIngest(t *testing.T) {
	require.ErrorIs(t, ErrMiss, ingest.ErrCacheMiss)
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url")
	require.Error(t, err)
}
