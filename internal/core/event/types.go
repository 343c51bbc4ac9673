package event

// Gameplay requests, posted on the tick bus.

// Shoot launches the player with the given velocity and counts one shot.
type Shoot struct {
	DX, DY float64
}

// FlipGravity inverts the player's gravity direction.
type FlipGravity struct{}

// RestartLevel asks the level flow to restart the current level.
type RestartLevel struct{}

// SkipLevel marks the current level as skipped and advances.
type SkipLevel struct{}

// Scheduled events, handled after the whole tick.

// WriteRankToStorage persists the rank of the level's personal best.
type WriteRankToStorage struct {
	LevelID int
}

// FlushSettings commits pending settings writes.
type FlushSettings struct{}

// ShowNextLevel advances past a finished level.
type ShowNextLevel struct{}

// CalculateRank recomputes the current run's rank from the leaderboard snapshot.
type CalculateRank struct{}

// UpdateAllRanks recomputes every stored rank after a fresh leaderboard sync.
type UpdateAllRanks struct{}

// WriteLeaderboardToStorage writes the leaderboard snapshot to the local cache file.
type WriteLeaderboardToStorage struct{}
