package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "settings.yaml")
	s, err := OpenFileStore(path)
	require.NoError(t, err)

	s.SetInt("a", 7)
	s.SetFloat("b", 2.5)
	s.SetFloat("whole", 12)
	s.SetBool("c", true)
	s.SetString("d", "v1")
	require.True(t, s.Dirty())
	require.NoError(t, s.Flush())
	require.False(t, s.Dirty())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 7, reopened.Int("a", 0))
	assert.Equal(t, 2.5, reopened.Float("b", 0))
	assert.Equal(t, 12.0, reopened.Float("whole", 0))
	assert.True(t, reopened.Bool("c", false))
	assert.Equal(t, "v1", reopened.String("d", ""))
	assert.Equal(t, 3, reopened.Int("missing", 3))
}

func TestSettingSameValueIsNotDirty(t *testing.T) {
	s := NewMemoryStore()
	s.SetInt("a", 1)
	require.NoError(t, s.Flush())
	s.SetInt("a", 1)
	assert.False(t, s.Dirty())
}

func TestFailedFlushKeepsPendingData(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := OpenFileStore(filepath.Join(blocker, "settings.yaml"))
	require.NoError(t, err)
	s.SetInt("a", 1)

	err = s.Flush()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, s.Int("a", 0))
}

func TestRulesDefaults(t *testing.T) {
	r := NewRules(NewMemoryStore())
	assert.Equal(t, NoHighscore, r.Highscore(3))
	assert.False(t, r.HasHighscore(3))
	assert.Equal(t, -1, r.Rank(3))
	assert.True(t, r.NextLeaderboardCacheTime().IsZero())
	assert.Equal(t, "", r.CachedLeaderboardVersion())
	assert.False(t, r.SoftBanned())

	r.SetHighscore(3, SkippedHighscore)
	assert.False(t, r.HasHighscore(3))
	r.SetHighscore(3, 9)
	assert.True(t, r.HasHighscore(3))
}

func TestRulesTimeValues(t *testing.T) {
	r := NewRules(NewMemoryStore())
	deadline := time.UnixMilli(1_700_000_123_456)
	r.SetNextLeaderboardCacheTime(deadline)
	assert.True(t, deadline.Equal(r.NextLeaderboardCacheTime()))

	r.SetPlayTime(2, 1500*time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, r.PlayTime(2))
}

func TestCacheDeadlineKeepsFullMillisAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := OpenFileStore(path)
	require.NoError(t, err)

	deadline := time.UnixMilli(4_102_444_800_123) // past the 32-bit range
	NewRules(s).SetNextLeaderboardCacheTime(deadline)
	require.NoError(t, s.Flush())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4_102_444_800_123), reopened.Int64("next_leaderboard_cache_time", 0))
	assert.True(t, deadline.Equal(NewRules(reopened).NextLeaderboardCacheTime()))
}
