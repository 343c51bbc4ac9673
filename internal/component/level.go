package component

// Level stores the state of the level being played. Held by the level singleton.
// Pure data; all mutations happen in systems.
type Level struct {
	ID int

	// Loading asks the level flow to (re)build the level's entities.
	Loading          bool
	Finished         bool
	RestartRequested bool
	Restarting       bool
	ChangingLevel    bool
	Skipping         bool

	// TimeInFinishZone is the uninterrupted dwell of the player inside the
	// finish zone, in seconds.
	TimeInFinishZone float64

	// CanFinish is true once every collectible (if any) was gathered.
	CanFinish bool
}

func (l *Level) Reset() {
	*l = Level{ID: 1, CanFinish: true}
}

// Playing reports whether the run is live: loaded, not finished and not
// being torn down.
func (l *Level) Playing() bool {
	return !l.Loading && !l.Finished && !l.Restarting && !l.ChangingLevel
}

// Map stores the current attempt's result. Held by the level singleton.
type Map struct {
	Shots int

	// Rank is the 1-based position on the level leaderboard, -1 until computed.
	Rank           int
	RankPercentage float64
	IsNewRecord    bool

	Collectibles int
	Collected    int
}

func (m *Map) Reset() {
	*m = Map{Rank: -1}
}

// ResetRun clears the per-attempt fields and keeps the level layout counts.
func (m *Map) ResetRun() {
	total := m.Collectibles
	m.Reset()
	m.Collectibles = total
}
