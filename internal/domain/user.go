package domain

import (
	"time"

	"github.com/google/uuid"
)

// Progression holds the XP-derived fields embedded in the user record.
// Level is denormalized from XP via the level table; the award engine keeps
// both in sync within a single transaction.
type Progression struct {
	XP    int64 `json:"xp"`
	Level int   `json:"level"`
}

// User represents a users row.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Progression
	QuestsCompleted int       `json:"quests_completed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AuthUser holds the credentials row backing a user account.
type AuthUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Badge is a uniquely-identified achievement marker. A user holds a badge at
// most once, keyed by ID.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// AwardResult is returned by the XP award engine.
type AwardResult struct {
	UserID    uuid.UUID `json:"user_id"`
	XP        int64     `json:"xp"`
	OldLevel  int       `json:"old_level"`
	NewLevel  int       `json:"new_level"`
	LeveledUp bool      `json:"leveled_up"`
	Applied   bool      `json:"applied"`
}
