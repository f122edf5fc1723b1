package handler

import (
	"net/http"

	"github.com/rpgsocial/platform/internal/auth"
	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/progression"
	"github.com/google/uuid"
)

// ProgressionHandler serves level and XP endpoints.
type ProgressionHandler struct {
	svc *progression.Service
}

// NewProgressionHandler creates a new ProgressionHandler.
func NewProgressionHandler(svc *progression.Service) *ProgressionHandler {
	return &ProgressionHandler{svc: svc}
}

// meResponse is the shape of GET /progression/me.
type meResponse struct {
	UserID          string               `json:"user_id"`
	Username        string               `json:"username"`
	XP              int64                `json:"xp"`
	QuestsCompleted int                  `json:"quests_completed"`
	Progression     progression.Snapshot `json:"progression"`
}

// Me handles GET /progression/me.
func (h *ProgressionHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	user, snap, err := h.svc.Snapshot(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, meResponse{
		UserID:          user.ID.String(),
		Username:        user.Username,
		XP:              user.XP,
		QuestsCompleted: user.QuestsCompleted,
		Progression:     snap,
	})
}

// Levels handles GET /levels. The table is static per deployment, so the
// response comes straight from the in-memory table rather than the database.
func (h *ProgressionHandler) Levels(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": h.svc.Levels(),
	})
}

// userIDFromContext extracts and validates the user UUID from auth context.
func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}
