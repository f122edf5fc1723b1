package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
		errMsg  string
	}{
		{"valid email", "user@example.com", false, ""},
		{"valid email with dots", "first.last@example.co.uk", false, ""},
		{"valid email with plus", "user+tag@example.com", false, ""},
		{"empty string", "", true, "email is required"},
		{"no at sign", "userexample.com", true, "invalid email format"},
		{"no domain", "user@", true, "invalid email format"},
		{"no tld", "user@example", true, "invalid email format"},
		{"spaces", "user @example.com", true, "invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "frodo", false},
		{"with digits", "frodo99", false},
		{"with underscore", "frodo_baggins", false},
		{"too short", "fb", true},
		{"too long", "a_very_long_username_over_24_chars", true},
		{"spaces", "frodo baggins", true},
		{"empty", "", true},
		{"symbols", "frodo!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateActionType(t *testing.T) {
	assert.NoError(t, ValidateActionType("post"))
	assert.NoError(t, ValidateActionType("like_received"))
	assert.Error(t, ValidateActionType(""))
	assert.Error(t, ValidateActionType("Post"))
	assert.Error(t, ValidateActionType("post action"))
	assert.Error(t, ValidateActionType("9post"))
}

func TestValidatePositiveAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"positive", 100, false},
		{"one", 1, false},
		{"large amount", 999_999_999, false},
		{"zero", 0, true},
		{"negative", -100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveAmount(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "amount must be positive")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRequirements(t *testing.T) {
	assert.NoError(t, ValidateRequirements([]Requirement{{Action: "post", Target: 1}}))
	assert.Error(t, ValidateRequirements(nil))
	assert.Error(t, ValidateRequirements([]Requirement{{Action: "post", Target: 0}}))
	assert.Error(t, ValidateRequirements([]Requirement{
		{Action: "post", Target: 1},
		{Action: "post", Target: 2},
	}))
}

// --- Level Table Tests ---

func TestDefaultLevelTable(t *testing.T) {
	defs := DefaultLevelTable()
	require.Len(t, defs, MaxLevel)

	assert.Equal(t, 1, defs[0].Level)
	assert.Equal(t, int64(0), defs[0].XPRequired)
	assert.Equal(t, int64(100), defs[1].XPRequired)
	assert.Equal(t, int64(300), defs[2].XPRequired)
	assert.Equal(t, int64(600), defs[3].XPRequired)

	for i := 1; i < len(defs); i++ {
		assert.Equal(t, i+1, defs[i].Level)
		assert.Greater(t, defs[i].XPRequired, defs[i-1].XPRequired,
			"xp thresholds must be strictly increasing at level %d", i+1)
	}

	assert.Equal(t, "Novice", defs[0].Tier)
	assert.Equal(t, "Novice X", defs[9].Title)
	assert.Equal(t, "Apprentice", defs[10].Tier)
	assert.Equal(t, "Mythic", defs[99].Tier)
	assert.Equal(t, "Mythic X", defs[99].Title)
	for _, d := range defs {
		assert.NotEmpty(t, d.Quote)
	}
}

// --- Quest Tests ---

func TestQuestDefinitionRequires(t *testing.T) {
	q := QuestDefinition{Requirements: []Requirement{
		{Action: "post", Target: 1},
		{Action: "like", Target: 2},
	}}
	assert.True(t, q.Requires("post"))
	assert.True(t, q.Requires("like"))
	assert.False(t, q.Requires("comment"))
}

func TestQuestDefinitionIsComplete(t *testing.T) {
	q := QuestDefinition{Requirements: []Requirement{
		{Action: "post", Target: 1},
		{Action: "like", Target: 2},
	}}

	assert.False(t, q.IsComplete(map[string]int{}))
	assert.False(t, q.IsComplete(map[string]int{"post": 1}))
	assert.False(t, q.IsComplete(map[string]int{"post": 1, "like": 1}))
	assert.True(t, q.IsComplete(map[string]int{"post": 1, "like": 2}))
	assert.True(t, q.IsComplete(map[string]int{"post": 5, "like": 10}))

	// A definition with no requirements can never complete.
	empty := QuestDefinition{}
	assert.False(t, empty.IsComplete(map[string]int{"post": 100}))
}

func TestQuestProgressIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&QuestProgress{}).IsExpired(now))
	assert.True(t, (&QuestProgress{ExpiresAt: &past}).IsExpired(now))
	assert.False(t, (&QuestProgress{ExpiresAt: &future}).IsExpired(now))
}

// --- Error Tests ---

func TestAppError(t *testing.T) {
	err := ErrNotFound("user", "abc")
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, 404, err.Status)
	assert.Contains(t, err.Error(), "user abc not found")

	verr := ErrValidation("amount must be positive")
	assert.Equal(t, 400, verr.Status)

	cerr := ErrConflict("already reset today")
	assert.Equal(t, 409, cerr.Status)

	ierr := ErrInternal("query failed", assert.AnError)
	assert.ErrorIs(t, ierr, assert.AnError)
}
