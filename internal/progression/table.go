package progression

import (
	"fmt"
	"sort"

	"github.com/rpgsocial/platform/internal/domain"
)

// Table is the ordered level catalog used for all level computation.
// It is immutable after construction.
type Table struct {
	defs []domain.LevelDefinition
}

// NewTable builds a table from level definitions, validating the ordering
// invariants: levels 1..N contiguous, thresholds strictly increasing,
// level 1 at 0 XP.
func NewTable(defs []domain.LevelDefinition) (*Table, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("level table is empty")
	}
	sorted := make([]domain.LevelDefinition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	if sorted[0].Level != 1 {
		return nil, fmt.Errorf("level table must start at level 1, got %d", sorted[0].Level)
	}
	if sorted[0].XPRequired != 0 {
		return nil, fmt.Errorf("level 1 must require 0 XP, got %d", sorted[0].XPRequired)
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Level != sorted[i-1].Level+1 {
			return nil, fmt.Errorf("level table has a gap after level %d", sorted[i-1].Level)
		}
		if sorted[i].XPRequired <= sorted[i-1].XPRequired {
			return nil, fmt.Errorf("xp threshold for level %d must exceed level %d", sorted[i].Level, sorted[i-1].Level)
		}
	}
	return &Table{defs: sorted}, nil
}

// DefaultTable returns the built-in 100-level catalog.
func DefaultTable() *Table {
	t, err := NewTable(domain.DefaultLevelTable())
	if err != nil {
		panic(fmt.Sprintf("default level table invalid: %v", err))
	}
	return t
}

// MaxLevel returns the highest level in the table.
func (t *Table) MaxLevel() int {
	return t.defs[len(t.defs)-1].Level
}

// Definitions returns the catalog in level order.
func (t *Table) Definitions() []domain.LevelDefinition {
	out := make([]domain.LevelDefinition, len(t.defs))
	copy(out, t.defs)
	return out
}

// Definition returns the definition for a level, clamped into table range.
func (t *Table) Definition(level int) domain.LevelDefinition {
	if level < 1 {
		level = 1
	}
	if level > t.MaxLevel() {
		level = t.MaxLevel()
	}
	return t.defs[level-1]
}

// LevelForXP returns the highest level whose threshold is at or below xp.
// Negative xp clamps to level 1.
func (t *Table) LevelForXP(xp int64) domain.LevelDefinition {
	// Binary search for the last definition with XPRequired <= xp.
	lo, hi := 0, len(t.defs)-1
	best := 0
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if t.defs[mid].XPRequired <= xp {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return t.defs[best]
}

// Snapshot describes where an XP total sits within its level band.
// NextLevel and XPForNext are nil at max level, where Percent is 100.
type Snapshot struct {
	CurrentLevel int    `json:"current_level"`
	Tier         string `json:"tier"`
	Title        string `json:"title"`
	Quote        string `json:"quote"`
	NextLevel    *int   `json:"next_level,omitempty"`
	XPIntoLevel  int64  `json:"xp_into_level"`
	XPForNext    *int64 `json:"xp_for_next,omitempty"`
	Percent      int    `json:"percent"`
}

// Progression computes the snapshot for an XP total, deriving the level from
// the table.
func (t *Table) Progression(xp int64) Snapshot {
	return t.ProgressionAt(t.LevelForXP(xp).Level, xp)
}

// ProgressionAt computes the snapshot for a given (level, xp) pair. The level
// is clamped into table range; xp below the level's threshold yields 0 percent.
func (t *Table) ProgressionAt(level int, xp int64) Snapshot {
	cur := t.Definition(level)
	snap := Snapshot{
		CurrentLevel: cur.Level,
		Tier:         cur.Tier,
		Title:        cur.Title,
		Quote:        cur.Quote,
	}

	if cur.Level == t.MaxLevel() {
		snap.XPIntoLevel = maxInt64(0, xp-cur.XPRequired)
		snap.Percent = 100
		return snap
	}

	next := t.defs[cur.Level] // defs are 0-indexed, so this is level+1
	into := xp - cur.XPRequired
	if into < 0 {
		into = 0
	}
	span := next.XPRequired - cur.XPRequired
	snap.NextLevel = &next.Level
	snap.XPIntoLevel = into
	snap.XPForNext = &span
	snap.Percent = int(into * 100 / span)
	if snap.Percent > 100 {
		snap.Percent = 100
	}
	return snap
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
