package settings

import (
	"fmt"
	"math"
	"time"
)

const (
	// NoHighscore means the level was never finished.
	NoHighscore = math.MaxInt32
	// SkippedHighscore means the level was skipped without being finished.
	SkippedHighscore = -1
)

// Rules is the typed view of the persisted game settings: per-level results
// and the global counters the finish pipeline and leaderboard sync rely on.
type Rules struct {
	store Store
}

func NewRules(store Store) *Rules {
	return &Rules{store: store}
}

func (r *Rules) Store() Store { return r.store }

func levelKey(id int, field string) string {
	return fmt.Sprintf("level.%d.%s", id, field)
}

// Highscore returns the fewest shots the level was finished with.
func (r *Rules) Highscore(level int) int {
	return r.store.Int(levelKey(level, "highscore"), NoHighscore)
}

func (r *Rules) SetHighscore(level, shots int) {
	r.store.SetInt(levelKey(level, "highscore"), shots)
}

// HasHighscore reports whether the level has a real finished result.
func (r *Rules) HasHighscore(level int) bool {
	h := r.Highscore(level)
	return h != NoHighscore && h != SkippedHighscore
}

func (r *Rules) FinishCount(level int) int {
	return r.store.Int(levelKey(level, "finish_count"), 0)
}

func (r *Rules) SetFinishCount(level, n int) {
	r.store.SetInt(levelKey(level, "finish_count"), n)
}

// PlayTime is the time spent on the level since its last finish.
func (r *Rules) PlayTime(level int) time.Duration {
	return time.Duration(r.store.Float(levelKey(level, "play_time"), 0) * float64(time.Second))
}

func (r *Rules) SetPlayTime(level int, d time.Duration) {
	r.store.SetFloat(levelKey(level, "play_time"), d.Seconds())
}

// Rank is the stored leaderboard position of the level's highscore, -1 if unknown.
func (r *Rules) Rank(level int) int {
	return r.store.Int(levelKey(level, "rank"), -1)
}

func (r *Rules) SetRank(level, rank int) {
	r.store.SetInt(levelKey(level, "rank"), rank)
}

func (r *Rules) RestartCount() int {
	return r.store.Int("restart_count", 0)
}

func (r *Rules) SetRestartCount(n int) {
	r.store.SetInt("restart_count", n)
}

func (r *Rules) HighestFinishedLevel() int {
	return r.store.Int("highest_finished_level", 0)
}

func (r *Rules) SetHighestFinishedLevel(level int) {
	r.store.SetInt("highest_finished_level", level)
}

// NextLeaderboardCacheTime is when the cached leaderboard expires.
func (r *Rules) NextLeaderboardCacheTime() time.Time {
	ms := r.store.Int64("next_leaderboard_cache_time", 0)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (r *Rules) SetNextLeaderboardCacheTime(t time.Time) {
	r.store.SetInt64("next_leaderboard_cache_time", t.UnixMilli())
}

// CachedLeaderboardVersion is the level content version the cached leaderboard belongs to.
func (r *Rules) CachedLeaderboardVersion() string {
	return r.store.String("cached_leaderboard_version", "")
}

func (r *Rules) SetCachedLeaderboardVersion(v string) {
	r.store.SetString("cached_leaderboard_version", v)
}

// SoftBanned players keep local results but never touch the shared leaderboard.
func (r *Rules) SoftBanned() bool {
	return r.store.Bool("soft_banned", false)
}

func (r *Rules) SetSoftBanned(v bool) {
	r.store.SetBool("soft_banned", v)
}

func (r *Rules) Flush() error {
	return r.store.Flush()
}
