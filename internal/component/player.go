package component

// Gravity directions for Player.GravitySign.
const (
	GravityDown = -1.0
	GravityUp   = 1.0
)

// Player marks the player entity.
type Player struct {
	GravitySign      float64
	InsideFinishZone bool
}

func (p *Player) Reset() {
	*p = Player{GravitySign: GravityDown}
}

// Network mirrors remote leaderboard connectivity for the systems.
type Network struct {
	Connected bool
}

func (n *Network) Reset() {
	*n = Network{}
}
