package data

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gravitybox/game/internal/component"
	"gopkg.in/yaml.v3"
)

// Rect is an axis-aligned area given by its lower-left corner and size.
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// LevelDef is one level's static layout. OffMapBelow and OffMapAbove bound
// the playable height; leaving it restarts the level.
type LevelDef struct {
	ID           int              `yaml:"id"`
	Spawn        component.Vec2   `yaml:"spawn"`
	Finish       Rect             `yaml:"finish"`
	Collectibles []component.Vec2 `yaml:"collectibles"`
	OffMapBelow  float64          `yaml:"off_map_below"`
	OffMapAbove  float64          `yaml:"off_map_above"`
}

type levelListFile struct {
	Levels []LevelDef `yaml:"levels"`
}

// LevelTable holds every level layout indexed by level ID.
type LevelTable struct {
	levels  map[int]*LevelDef
	ids     []int
	version string
}

// Get returns the layout of a level, or nil if none is defined.
func (t *LevelTable) Get(id int) *LevelDef {
	return t.levels[id]
}

// Count returns the number of levels.
func (t *LevelTable) Count() int {
	return len(t.levels)
}

// IDs returns every level ID in ascending order.
func (t *LevelTable) IDs() []int {
	out := make([]int, len(t.ids))
	copy(out, t.ids)
	return out
}

// Next returns the level following id, wrapping around to the first level.
func (t *LevelTable) Next(id int) int {
	if len(t.ids) == 0 {
		return id
	}
	i := sort.SearchInts(t.ids, id+1)
	if i >= len(t.ids) {
		return t.ids[0]
	}
	return t.ids[i]
}

// Version identifies the level content. Any change to the level file yields a
// new version, which invalidates locally cached leaderboards.
func (t *LevelTable) Version() string {
	return t.version
}

// LoadLevelTable loads level layouts from a YAML file.
func LoadLevelTable(path string) (*LevelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level_list: %w", err)
	}
	t, err := ParseLevelTable(raw)
	if err != nil {
		return nil, fmt.Errorf("parse level_list: %w", err)
	}
	return t, nil
}

// ParseLevelTable decodes level layouts from YAML bytes.
func ParseLevelTable(raw []byte) (*LevelTable, error) {
	var f levelListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	t := &LevelTable{
		levels:  make(map[int]*LevelDef, len(f.Levels)),
		version: strconv.FormatUint(xxhash.Sum64(raw), 16),
	}
	for i := range f.Levels {
		def := &f.Levels[i]
		if def.ID <= 0 {
			return nil, fmt.Errorf("level #%d: invalid id %d", i, def.ID)
		}
		if _, dup := t.levels[def.ID]; dup {
			return nil, fmt.Errorf("level %d defined twice", def.ID)
		}
		if def.OffMapBelow == 0 && def.OffMapAbove == 0 {
			def.OffMapBelow, def.OffMapAbove = -10, 50
		}
		t.levels[def.ID] = def
		t.ids = append(t.ids, def.ID)
	}
	sort.Ints(t.ids)
	return t, nil
}

// FinishZone converts the finish rectangle into a component.
func (d *LevelDef) FinishZone() component.FinishZone {
	return component.FinishZone{
		Min: component.Vec2{X: d.Finish.X, Y: d.Finish.Y},
		Max: component.Vec2{X: d.Finish.X + d.Finish.W, Y: d.Finish.Y + d.Finish.H},
	}
}
