package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventUserCreated    EventType = "rpg.user.created"
	EventXPAwarded      EventType = "rpg.progression.xp.awarded"
	EventLevelUp        EventType = "rpg.progression.level.up"
	EventQuestCompleted EventType = "rpg.quest.completed"
	EventQuestReset     EventType = "rpg.quest.daily.reset"
	EventBadgeUnlocked  EventType = "rpg.badge.unlocked"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateUser  AggregateType = "user"
	AggregateQuest AggregateType = "quest"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
