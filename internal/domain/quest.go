package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuestType categorizes quest definitions.
type QuestType string

const (
	QuestDaily       QuestType = "daily"
	QuestWeekly      QuestType = "weekly"
	QuestAchievement QuestType = "achievement"
)

// QuestStatus is the per-user progress state. Terminal states are only
// re-entered through the daily reset.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestExpired   QuestStatus = "expired"
)

// DailyQuestWindow is how long a daily quest stays open after a reset.
const DailyQuestWindow = 24 * time.Hour

// WeeklyQuestWindow is how long a weekly quest stays open once started.
const WeeklyQuestWindow = 7 * 24 * time.Hour

// ProgressWindow returns the open window for a fresh progress record starting
// at now. Achievements never expire.
func (d *QuestDefinition) ProgressWindow(now time.Time) *time.Time {
	var expires time.Time
	switch d.Type {
	case QuestDaily:
		expires = now.Add(DailyQuestWindow)
	case QuestWeekly:
		expires = now.Add(WeeklyQuestWindow)
	default:
		return nil
	}
	return &expires
}

// Requirement is one action-type/target pair of a quest's requirement list.
type Requirement struct {
	Action string `json:"action"`
	Target int    `json:"target"`
}

// QuestDefinition is a shared, read-only quest template.
type QuestDefinition struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Type         QuestType     `json:"type"`
	Requirements []Requirement `json:"requirements"`
	RewardXP     int64         `json:"reward_xp"`
	Active       bool          `json:"active"`
	SortOrder    int           `json:"sort_order"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Requires reports whether the quest's requirement list contains the action.
func (d *QuestDefinition) Requires(action string) bool {
	for _, r := range d.Requirements {
		if r.Action == action {
			return true
		}
	}
	return false
}

// IsComplete is the completion predicate: every required action type has
// accumulated at least its target count.
func (d *QuestDefinition) IsComplete(progress map[string]int) bool {
	if len(d.Requirements) == 0 {
		return false
	}
	for _, r := range d.Requirements {
		if progress[r.Action] < r.Target {
			return false
		}
	}
	return true
}

// QuestProgress is one user's state on one quest instance, keyed uniquely by
// (UserID, QuestID).
type QuestProgress struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	QuestID     uuid.UUID      `json:"quest_id"`
	Status      QuestStatus    `json:"status"`
	Progress    map[string]int `json:"progress"`
	StartedAt   time.Time      `json:"started_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// IsExpired reports whether the progress window has closed as of now.
func (p *QuestProgress) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// QuestReward is the metadata surfaced to callers when a quest completes.
type QuestReward struct {
	QuestID   uuid.UUID `json:"quest_id"`
	Title     string    `json:"title"`
	XPGranted int64     `json:"xp_granted"`
	Level     int       `json:"level"`
	LeveledUp bool      `json:"leveled_up"`
}
