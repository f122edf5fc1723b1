package handler

import (
	"net/http"

	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/guard"
	"github.com/rpgsocial/platform/internal/quest"
)

// QuestHandler handles quest listing and progress endpoints.
type QuestHandler struct {
	tracker     *quest.Tracker
	idempotency *guard.IdempotencyGuard
}

// NewQuestHandler creates a new QuestHandler.
func NewQuestHandler(tracker *quest.Tracker, idempotency *guard.IdempotencyGuard) *QuestHandler {
	return &QuestHandler{tracker: tracker, idempotency: idempotency}
}

type questWithProgress struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Type         domain.QuestType     `json:"type"`
	Requirements []domain.Requirement `json:"requirements"`
	RewardXP     int64                `json:"reward_xp"`
	Status       domain.QuestStatus   `json:"status"`
	Progress     map[string]int       `json:"progress"`
}

// List handles GET /quests — active quest definitions with the caller's progress.
func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	rows, err := h.tracker.ListForUser(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	quests := make([]questWithProgress, 0, len(rows))
	for _, row := range rows {
		q := questWithProgress{
			ID:           row.Definition.ID.String(),
			Title:        row.Definition.Title,
			Description:  row.Definition.Description,
			Type:         row.Definition.Type,
			Requirements: row.Definition.Requirements,
			RewardXP:     row.Definition.RewardXP,
			Status:       row.Progress.Status,
			Progress:     row.Progress.Progress,
		}
		if q.Progress == nil {
			q.Progress = map[string]int{}
		}
		if q.Status == "" {
			q.Status = "not_started"
		}
		quests = append(quests, q)
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"quests": quests})
}

// progressRequest is the body of POST /quests/progress.
type progressRequest struct {
	ActionType string `json:"action_type"`
	Value      int    `json:"value"`
}

// UpdateProgress handles POST /quests/progress. One reported action may
// advance several quests at once.
func (h *QuestHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req progressRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Value == 0 {
		req.Value = 1
	}

	// Clients may resend progress reports on flaky connections; an
	// Idempotency-Key header makes the retry a no-op instead of a double count.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if res := h.idempotency.Check(r.Context(), userID.String()+":"+idemKey); !res.Allowed {
			RespondError(w, domain.ErrConflict(res.Reason))
			return
		}
	}

	result, err := h.tracker.UpdateProgress(r.Context(), userID, req.ActionType, req.Value)
	if err != nil {
		if idemKey != "" {
			h.idempotency.Remove(userID.String() + ":" + idemKey)
		}
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// ResetDaily handles POST /quests/reset. Safe to call repeatedly; a second
// call on the same day changes nothing.
func (h *QuestHandler) ResetDaily(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.tracker.ResetDailyQuests(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
