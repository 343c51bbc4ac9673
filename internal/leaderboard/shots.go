// Package leaderboard keeps the shared shots distribution: for every level,
// how many players finished it with a given number of shots.
package leaderboard

import "sort"

// Shots maps level id -> shots bucket -> player count. Counts never go negative.
type Shots struct {
	Levels map[int]map[int]int64 `yaml:"levels" msgpack:"levels"`
}

func NewShots() *Shots {
	return &Shots{Levels: make(map[int]map[int]int64)}
}

func (s *Shots) bucket(level int) map[int]int64 {
	if s.Levels == nil {
		s.Levels = make(map[int]map[int]int64)
	}
	b := s.Levels[level]
	if b == nil {
		b = make(map[int]int64)
		s.Levels[level] = b
	}
	return b
}

// Count returns the number of players that finished level with exactly shots.
func (s *Shots) Count(level, shots int) int64 {
	return s.Levels[level][shots]
}

func (s *Shots) Increment(level, shots int) {
	s.bucket(level)[shots]++
}

// Decrement lowers the bucket by one, clamped at zero.
func (s *Shots) Decrement(level, shots int) {
	b := s.bucket(level)
	if b[shots] > 0 {
		b[shots]--
	}
}

// Adjust applies delta to a bucket, clamped at zero.
func (s *Shots) Adjust(level, shots int, delta int64) {
	b := s.bucket(level)
	v := b[shots] + delta
	if v < 0 {
		v = 0
	}
	b[shots] = v
}

func (s *Shots) Set(level, shots int, count int64) {
	if count < 0 {
		count = 0
	}
	s.bucket(level)[shots] = count
}

// Total returns the number of players on the level's board.
func (s *Shots) Total(level int) int64 {
	var n int64
	for _, c := range s.Levels[level] {
		n += c
	}
	return n
}

// Buckets returns the level's non-empty buckets sorted by shots.
func (s *Shots) Buckets(level int) []Bucket {
	b := s.Levels[level]
	out := make([]Bucket, 0, len(b))
	for shots, c := range b {
		if c > 0 {
			out = append(out, Bucket{Shots: shots, Players: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shots < out[j].Shots })
	return out
}

// Normalize repairs a decoded snapshot: empty levels get a bucket map and
// negative counts are raised to zero.
func (s *Shots) Normalize() {
	if s.Levels == nil {
		s.Levels = make(map[int]map[int]int64)
	}
	for level, b := range s.Levels {
		if b == nil {
			s.Levels[level] = make(map[int]int64)
			continue
		}
		for shots, c := range b {
			if c < 0 {
				b[shots] = 0
			}
		}
	}
}

func (s *Shots) Clone() *Shots {
	c := NewShots()
	for level, b := range s.Levels {
		cb := make(map[int]int64, len(b))
		for k, v := range b {
			cb[k] = v
		}
		c.Levels[level] = cb
	}
	return c
}

// Bucket is one histogram slot of a level board.
type Bucket struct {
	Shots   int
	Players int64
}

// Rank is a player's standing on a level board.
type Rank struct {
	Position   int
	Percentage float64
	NewRecord  bool
}

// Rank places a result of shots on the level board. The player is assumed to
// already be counted in the distribution; if not, they are added virtually
// so the position never exceeds the total.
func (s *Shots) Rank(level, shots int) Rank {
	return RankFromBuckets(s.Buckets(level), shots)
}

// RankFromBuckets is the rank formula shared by the in-process path and the
// scripted one.
func RankFromBuckets(buckets []Bucket, shots int) Rank {
	var below, total, same int64
	for _, b := range buckets {
		total += b.Players
		switch {
		case b.Shots < shots:
			below += b.Players
		case b.Shots == shots:
			same = b.Players
		}
	}
	position := below + 1
	if total < position {
		total = position
	}
	return Rank{
		Position:   int(position),
		Percentage: float64(position) / float64(total) * 100,
		NewRecord:  below == 0 && same <= 1,
	}
}
