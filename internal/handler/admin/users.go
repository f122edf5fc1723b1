package admin

import (
	"net/http"
	"time"

	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/handler"
	"github.com/rpgsocial/platform/internal/progression"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UserAdminHandler handles manual XP grants and badge awards.
type UserAdminHandler struct {
	progression *progression.Service
}

// NewUserAdminHandler creates a new UserAdminHandler.
func NewUserAdminHandler(svc *progression.Service) *UserAdminHandler {
	return &UserAdminHandler{progression: svc}
}

// GrantXP handles POST /admin/users/{id}/xp.
func (h *UserAdminHandler) GrantXP(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	var input struct {
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if input.Amount <= 0 {
		handler.RespondError(w, domain.ErrValidation("amount must be positive"))
		return
	}
	if input.Reason == "" {
		input.Reason = "admin_grant"
	}

	result, err := h.progression.Award(r.Context(), userID, input.Amount, input.Reason)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, result)
}

// GrantBadge handles POST /admin/users/{id}/badges. A repeat grant of the
// same badge is a no-op.
func (h *UserAdminHandler) GrantBadge(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	var input struct {
		BadgeID     string `json:"badge_id"`
		Name        string `json:"name"`
		Icon        string `json:"icon"`
		Description string `json:"description"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	badge := domain.Badge{
		ID:          input.BadgeID,
		Name:        input.Name,
		Icon:        input.Icon,
		Description: input.Description,
		UnlockedAt:  time.Now().UTC(),
	}

	added, err := h.progression.AddBadge(r.Context(), userID, badge)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	handler.RespondJSON(w, status, map[string]interface{}{
		"badge_id": badge.ID,
		"added":    added,
	})
}
