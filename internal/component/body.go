package component

// Body is the narrow view of a physics body: a position and a settable
// velocity. The simulation behind it is not modelled here.
type Body struct {
	Position Vec2
	Velocity Vec2
}

func (b *Body) Reset() {
	*b = Body{}
}

// Collectible is a point that must be gathered before the level can finish.
type Collectible struct {
	Radius float64
}

func (c *Collectible) Reset() {
	*c = Collectible{Radius: 0.5}
}

// FinishZone is the axis-aligned area the player must dwell in to finish.
type FinishZone struct {
	Min Vec2
	Max Vec2
}

func (z *FinishZone) Reset() {
	*z = FinishZone{}
}

func (z *FinishZone) Contains(p Vec2) bool {
	return p.X >= z.Min.X && p.X <= z.Max.X && p.Y >= z.Min.Y && p.Y <= z.Max.Y
}
