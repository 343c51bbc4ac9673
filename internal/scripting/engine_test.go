package scripting

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scriptsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "scripts")
}

func TestShippedRankScriptMatchesBuiltin(t *testing.T) {
	e, err := NewEngine(scriptsDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	s := leaderboard.NewShots()
	s.Set(1, 3, 2)
	s.Set(1, 5, 5)
	s.Set(1, 8, 3)

	for _, shots := range []int{1, 3, 5, 8, 20} {
		want := s.Rank(1, shots)
		got := e.CalcRank(s.Buckets(1), shots)
		assert.Equal(t, want.Position, got.Position, "shots=%d", shots)
		assert.InDelta(t, want.Percentage, got.Percentage, 1e-9, "shots=%d", shots)
		assert.Equal(t, want.NewRecord, got.NewRecord, "shots=%d", shots)
	}
	assert.Equal(t, 1500, e.FinishDwellMillis(1, 1500))
}

func TestMissingScriptsDirFallsBack(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "none"), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	r := e.CalcRank([]leaderboard.Bucket{{Shots: 4, Players: 1}}, 6)
	assert.Equal(t, 2, r.Position)
	assert.InDelta(t, 100.0, r.Percentage, 1e-9)
}

func TestBrokenRankScriptFallsBack(t *testing.T) {
	e, err := NewEngineFromSource(`function calc_rank(ctx) error("boom") end`, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	r := e.CalcRank(nil, 3)
	assert.Equal(t, leaderboard.Rank{Position: 1, Percentage: 100, NewRecord: true}, r)
}

func TestScriptedDwell(t *testing.T) {
	e, err := NewEngineFromSource(`function finish_dwell_ms(id) if id == 7 then return 250 end return 0 end`, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 250, e.FinishDwellMillis(7, 1000))
	assert.Equal(t, 1000, e.FinishDwellMillis(2, 1000))
}

func TestSyntaxErrorIsReported(t *testing.T) {
	_, err := NewEngineFromSource(`function (`, zap.NewNop())
	assert.Error(t, err)
}
