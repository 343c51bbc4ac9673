package system

import (
	"github.com/gravitybox/game/internal/core/event"
	"go.uber.org/zap"
)

// RankHandlers compute leaderboard ranks from the current snapshot. They run
// as scheduled-bus handlers, after the tick that asked for them.
type RankHandlers struct {
	deps *Deps
}

func NewRankHandlers(deps *Deps) *RankHandlers {
	h := &RankHandlers{deps: deps}
	event.Subscribe(deps.Scheduled, h.onCalculateRank)
	event.Subscribe(deps.Scheduled, h.onWriteRank)
	event.Subscribe(deps.Scheduled, h.onUpdateAllRanks)
	return h
}

// onCalculateRank ranks the run that just finished, then moves on.
func (h *RankHandlers) onCalculateRank(event.CalculateRank) {
	lvl := h.deps.Level()
	if !lvl.Finished || lvl.Restarting {
		return
	}
	if h.calculateMapRank() {
		m := h.deps.Map()
		h.deps.Log.Info("level result",
			zap.Int("level", lvl.ID),
			zap.Int("shots", m.Shots),
			zap.Int("rank", m.Rank),
			zap.Float64("top_percent", m.RankPercentage),
			zap.Bool("new_record", m.IsNewRecord))
	}
	event.Post(h.deps.Scheduled, event.ShowNextLevel{})
}

// calculateMapRank ranks the current run's shots into the Map component.
func (h *RankHandlers) calculateMapRank() bool {
	if !h.deps.Leaderboard.Loaded() {
		return false
	}
	lvl, m := h.deps.Level(), h.deps.Map()
	rank := h.deps.rankOf(lvl.ID, m.Shots)
	m.Rank = rank.Position
	m.RankPercentage = rank.Percentage
	m.IsNewRecord = rank.NewRecord
	return true
}

// onWriteRank stores the rank of the level's personal best.
func (h *RankHandlers) onWriteRank(e event.WriteRankToStorage) {
	if h.writeRank(e.LevelID) {
		event.Post(h.deps.Scheduled, event.FlushSettings{})
	}
}

func (h *RankHandlers) writeRank(level int) bool {
	r := h.deps.Rules
	if !h.deps.Leaderboard.Loaded() || !r.HasHighscore(level) {
		return false
	}
	rank := h.deps.rankOf(level, r.Highscore(level))
	if r.Rank(level) == rank.Position {
		return false
	}
	r.SetRank(level, rank.Position)
	return true
}

// onUpdateAllRanks refreshes every stored rank after a full sync.
func (h *RankHandlers) onUpdateAllRanks(event.UpdateAllRanks) {
	changed := 0
	for _, id := range h.deps.Levels.IDs() {
		if h.writeRank(id) {
			changed++
		}
	}
	if lvl := h.deps.Level(); lvl.Finished && !lvl.Restarting {
		h.calculateMapRank()
	}
	if changed > 0 {
		event.Post(h.deps.Scheduled, event.FlushSettings{})
	}
	h.deps.Log.Debug("ranks updated", zap.Int("changed", changed))
}
