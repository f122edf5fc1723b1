package domain

import "fmt"

// MaxLevel is the top of the level catalog.
const MaxLevel = 100

// LevelDefinition is one row of the immutable level catalog.
// XPRequired is the total accumulated XP needed to hold the level and is
// strictly increasing with Level; level 1 requires 0.
type LevelDefinition struct {
	Level      int    `json:"level"`
	XPRequired int64  `json:"xp_required"`
	Tier       string `json:"tier"`
	Title      string `json:"title"`
	Quote      string `json:"quote"`
}

// Tier names, one per block of 10 levels.
var tierNames = [10]string{
	"Novice", "Apprentice", "Adept", "Journeyman", "Veteran",
	"Elite", "Champion", "Hero", "Legend", "Mythic",
}

var tierQuotes = [10]string{
	"Every saga starts with a single step.",
	"Practice is the sharpest blade.",
	"Skill is earned, never given.",
	"The road itself is the teacher.",
	"Scars are just stories with proof.",
	"Few climb this high. Fewer stay.",
	"The arena remembers your name.",
	"Deeds, not words, build heroes.",
	"Your story is told around fires.",
	"You have become the myth itself.",
}

var romanNumerals = [10]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

// DefaultLevelTable builds the 100-level catalog seeded into level_definitions.
// Thresholds follow a triangular curve: level 2 at 100 XP, level 3 at 300,
// level 4 at 600, so each level costs 100 XP more than the one before it.
func DefaultLevelTable() []LevelDefinition {
	defs := make([]LevelDefinition, 0, MaxLevel)
	for lvl := 1; lvl <= MaxLevel; lvl++ {
		tierIdx := (lvl - 1) / 10
		defs = append(defs, LevelDefinition{
			Level:      lvl,
			XPRequired: xpThreshold(lvl),
			Tier:       tierNames[tierIdx],
			Title:      fmt.Sprintf("%s %s", tierNames[tierIdx], romanNumerals[(lvl-1)%10]),
			Quote:      tierQuotes[tierIdx],
		})
	}
	return defs
}

func xpThreshold(level int) int64 {
	n := int64(level - 1)
	return 100 * n * (n + 1) / 2
}
