package handler

import (
	"net/http"

	"github.com/rpgsocial/platform/internal/progression"
)

// BadgeHandler serves the caller's badge collection.
type BadgeHandler struct {
	svc *progression.Service
}

// NewBadgeHandler creates a new BadgeHandler.
func NewBadgeHandler(svc *progression.Service) *BadgeHandler {
	return &BadgeHandler{svc: svc}
}

// ListMine handles GET /badges/me.
func (h *BadgeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	badges, err := h.svc.ListBadges(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}
