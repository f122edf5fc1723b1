package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func draft(agg AggregateType, aggID string, evt EventType, payload []byte) OutboxDraft {
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evt,
		PartitionKey:  aggID,
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewUserCreatedEvent creates a user lifecycle event.
func NewUserCreatedEvent(userID uuid.UUID, email, username string) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"user_id":  userID.String(),
		"email":    email,
		"username": username,
	})
	return draft(AggregateUser, userID.String(), EventUserCreated, payload)
}

// NewXPAwardedEvent creates the standard progression event for an XP grant.
func NewXPAwardedEvent(userID uuid.UUID, amount int64, reason string, result AwardResult) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id": userID.String(),
		"amount":  amount,
		"reason":  reason,
		"xp":      result.XP,
		"level":   result.NewLevel,
	})
	return draft(AggregateUser, userID.String(), EventXPAwarded, payload)
}

// NewLevelUpEvent creates a level-up event with the crossed level range.
func NewLevelUpEvent(userID uuid.UUID, oldLevel, newLevel int, title string) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":   userID.String(),
		"old_level": oldLevel,
		"new_level": newLevel,
		"title":     title,
	})
	return draft(AggregateUser, userID.String(), EventLevelUp, payload)
}

// NewQuestCompletedEvent creates a quest completion event.
func NewQuestCompletedEvent(userID uuid.UUID, reward QuestReward) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":    userID.String(),
		"quest_id":   reward.QuestID.String(),
		"title":      reward.Title,
		"xp_granted": reward.XPGranted,
		"level":      reward.Level,
		"leveled_up": reward.LeveledUp,
	})
	return draft(AggregateQuest, userID.String(), EventQuestCompleted, payload)
}

// NewQuestResetEvent records the outcome of a daily reset that changed state.
func NewQuestResetEvent(userID uuid.UUID, newQuests, resetQuests, expiredQuests []string) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":        userID.String(),
		"new_quests":     newQuests,
		"reset_quests":   resetQuests,
		"expired_quests": expiredQuests,
	})
	return draft(AggregateQuest, userID.String(), EventQuestReset, payload)
}

// NewBadgeUnlockedEvent creates a badge unlock event.
func NewBadgeUnlockedEvent(userID uuid.UUID, badge Badge) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":  userID.String(),
		"badge_id": badge.ID,
		"name":     badge.Name,
	})
	return draft(AggregateUser, userID.String(), EventBadgeUnlocked, payload)
}
