package admin

import (
	"net/http"
	"time"

	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/handler"
	"github.com/rpgsocial/platform/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// QuestAdminHandler handles admin quest catalog management.
type QuestAdminHandler struct {
	quests repository.QuestRepository
	db     repository.DBTX
}

// NewQuestAdminHandler creates a new QuestAdminHandler.
func NewQuestAdminHandler(quests repository.QuestRepository, db repository.DBTX) *QuestAdminHandler {
	return &QuestAdminHandler{quests: quests, db: db}
}

// ListQuests handles GET /admin/quests — the full catalog, inactive included.
func (h *QuestAdminHandler) ListQuests(w http.ResponseWriter, r *http.Request) {
	defs, err := h.quests.ListDefinitions(r.Context(), h.db, false)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list quests", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"quests": defs})
}

// CreateQuest handles POST /admin/quests.
func (h *QuestAdminHandler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title        string               `json:"title"`
		Description  string               `json:"description"`
		Type         domain.QuestType     `json:"type"`
		Requirements []domain.Requirement `json:"requirements"`
		RewardXP     int64                `json:"reward_xp"`
		SortOrder    int                  `json:"sort_order"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if input.Title == "" {
		handler.RespondError(w, domain.ErrValidation("title is required"))
		return
	}
	switch input.Type {
	case domain.QuestDaily, domain.QuestWeekly, domain.QuestAchievement:
	default:
		handler.RespondError(w, domain.ErrValidation("invalid quest type"))
		return
	}
	if input.RewardXP <= 0 {
		handler.RespondError(w, domain.ErrValidation("reward_xp must be positive"))
		return
	}
	if err := domain.ValidateRequirements(input.Requirements); err != nil {
		handler.RespondError(w, err)
		return
	}

	def := &domain.QuestDefinition{
		ID:           uuid.New(),
		Title:        input.Title,
		Description:  input.Description,
		Type:         input.Type,
		Requirements: input.Requirements,
		RewardXP:     input.RewardXP,
		Active:       true,
		SortOrder:    input.SortOrder,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.quests.CreateDefinition(r.Context(), h.db, def); err != nil {
		handler.RespondError(w, domain.ErrInternal("create quest", err))
		return
	}

	handler.RespondJSON(w, http.StatusCreated, def)
}

// SetQuestActive handles PATCH /admin/quests/{id}/active.
func (h *QuestAdminHandler) SetQuestActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid quest id"))
		return
	}

	var input struct {
		Active bool `json:"active"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	found, err := h.quests.SetDefinitionActive(r.Context(), h.db, id, input.Active)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("update quest", err))
		return
	}
	if !found {
		handler.RespondError(w, domain.ErrNotFound("quest", id.String()))
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"id": id.String(), "active": input.Active})
}
