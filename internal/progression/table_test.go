package progression

import (
	"testing"

	"github.com/rpgsocial/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable(nil)
	assert.Error(t, err)

	_, err = NewTable([]domain.LevelDefinition{{Level: 2, XPRequired: 100}})
	assert.ErrorContains(t, err, "start at level 1")

	_, err = NewTable([]domain.LevelDefinition{{Level: 1, XPRequired: 50}})
	assert.ErrorContains(t, err, "0 XP")

	_, err = NewTable([]domain.LevelDefinition{
		{Level: 1, XPRequired: 0},
		{Level: 3, XPRequired: 100},
	})
	assert.ErrorContains(t, err, "gap")

	_, err = NewTable([]domain.LevelDefinition{
		{Level: 1, XPRequired: 0},
		{Level: 2, XPRequired: 100},
		{Level: 3, XPRequired: 100},
	})
	assert.ErrorContains(t, err, "must exceed")
}

func TestLevelForXP_Maximality(t *testing.T) {
	table := DefaultTable()
	defs := table.Definitions()

	// The chosen level's threshold is <= xp, and the next level's is not.
	for _, xp := range []int64{0, 1, 99, 100, 101, 299, 300, 5000, 123456, 999_999_999} {
		def := table.LevelForXP(xp)
		assert.LessOrEqual(t, def.XPRequired, xp)
		if def.Level < table.MaxLevel() {
			assert.Greater(t, defs[def.Level].XPRequired, xp,
				"level %d is not maximal for xp=%d", def.Level, xp)
		}
	}
}

func TestLevelForXP_Boundaries(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, 1, table.LevelForXP(0).Level)
	assert.Equal(t, 1, table.LevelForXP(-50).Level, "negative xp clamps to level 1")
	assert.Equal(t, 1, table.LevelForXP(99).Level)
	assert.Equal(t, 2, table.LevelForXP(100).Level)
	assert.Equal(t, 2, table.LevelForXP(299).Level)
	assert.Equal(t, 3, table.LevelForXP(300).Level)

	// Beyond the level-100 threshold clamps to 100.
	top := table.Definitions()[table.MaxLevel()-1]
	assert.Equal(t, 100, table.LevelForXP(top.XPRequired).Level)
	assert.Equal(t, 100, table.LevelForXP(top.XPRequired*10).Level)
}

func TestLevelForXP_MatchesLinearScan(t *testing.T) {
	table := DefaultTable()
	defs := table.Definitions()

	linear := func(xp int64) int {
		level := 1
		for _, d := range defs {
			if d.XPRequired <= xp {
				level = d.Level
			}
		}
		return level
	}

	for xp := int64(0); xp <= 20_000; xp += 37 {
		assert.Equal(t, linear(xp), table.LevelForXP(xp).Level, "xp=%d", xp)
	}
}

func TestProgression_WithinBand(t *testing.T) {
	table := DefaultTable()

	snap := table.Progression(0)
	assert.Equal(t, 1, snap.CurrentLevel)
	require.NotNil(t, snap.NextLevel)
	assert.Equal(t, 2, *snap.NextLevel)
	assert.Equal(t, int64(0), snap.XPIntoLevel)
	require.NotNil(t, snap.XPForNext)
	assert.Equal(t, int64(100), *snap.XPForNext)
	assert.Equal(t, 0, snap.Percent)

	snap = table.Progression(50)
	assert.Equal(t, 1, snap.CurrentLevel)
	assert.Equal(t, int64(50), snap.XPIntoLevel)
	assert.Equal(t, 50, snap.Percent)

	// Level 2 band runs 100..300.
	snap = table.Progression(150)
	assert.Equal(t, 2, snap.CurrentLevel)
	assert.Equal(t, int64(50), snap.XPIntoLevel)
	require.NotNil(t, snap.XPForNext)
	assert.Equal(t, int64(200), *snap.XPForNext)
	assert.Equal(t, 25, snap.Percent)
}

func TestProgression_Monotonic(t *testing.T) {
	table := DefaultTable()

	prevLevel := 0
	prevPercent := -1
	for xp := int64(0); xp <= 10_000; xp++ {
		snap := table.Progression(xp)
		if snap.CurrentLevel == prevLevel {
			assert.GreaterOrEqual(t, snap.Percent, prevPercent, "percent regressed at xp=%d", xp)
		} else {
			assert.Equal(t, prevLevel+1, snap.CurrentLevel, "level jumped by more than 1 at xp=%d", xp)
		}
		prevLevel = snap.CurrentLevel
		prevPercent = snap.Percent
	}
}

func TestProgression_MaxLevel(t *testing.T) {
	table := DefaultTable()
	top := table.Definitions()[table.MaxLevel()-1]

	snap := table.Progression(top.XPRequired)
	assert.Equal(t, 100, snap.CurrentLevel)
	assert.Nil(t, snap.NextLevel)
	assert.Nil(t, snap.XPForNext)
	assert.Equal(t, 100, snap.Percent)

	snap = table.Progression(top.XPRequired + 12345)
	assert.Equal(t, 100, snap.CurrentLevel)
	assert.Equal(t, int64(12345), snap.XPIntoLevel)
	assert.Equal(t, 100, snap.Percent)
}

func TestProgressionAt_ClampsLevel(t *testing.T) {
	table := DefaultTable()

	snap := table.ProgressionAt(0, 50)
	assert.Equal(t, 1, snap.CurrentLevel)

	snap = table.ProgressionAt(500, 0)
	assert.Equal(t, 100, snap.CurrentLevel)
	assert.Equal(t, 100, snap.Percent)

	// XP below the level threshold never goes negative.
	snap = table.ProgressionAt(5, 0)
	assert.Equal(t, int64(0), snap.XPIntoLevel)
	assert.Equal(t, 0, snap.Percent)
}

func TestDefinition_TierMetadata(t *testing.T) {
	table := DefaultTable()

	def := table.Definition(1)
	assert.Equal(t, "Novice", def.Tier)
	def = table.Definition(100)
	assert.Equal(t, "Mythic", def.Tier)
	assert.NotEmpty(t, def.Quote)
}
