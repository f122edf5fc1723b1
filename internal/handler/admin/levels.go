package admin

import (
	"net/http"

	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/handler"
	"github.com/rpgsocial/platform/internal/repository"
)

// LevelAdminHandler manages the persisted level catalog.
type LevelAdminHandler struct {
	levels repository.LevelRepository
	db     repository.DBTX
}

// NewLevelAdminHandler creates a new LevelAdminHandler.
func NewLevelAdminHandler(levels repository.LevelRepository, db repository.DBTX) *LevelAdminHandler {
	return &LevelAdminHandler{levels: levels, db: db}
}

// SeedLevels handles POST /admin/levels/seed. Upserts the built-in curve by
// level number, so re-seeding is harmless.
func (h *LevelAdminHandler) SeedLevels(w http.ResponseWriter, r *http.Request) {
	defs := domain.DefaultLevelTable()
	if err := h.levels.Seed(r.Context(), h.db, defs); err != nil {
		handler.RespondError(w, domain.ErrInternal("seed levels", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"seeded": len(defs),
	})
}

// ListLevels handles GET /admin/levels — the catalog as stored.
func (h *LevelAdminHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	defs, err := h.levels.List(r.Context(), h.db)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list levels", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"levels": defs})
}
