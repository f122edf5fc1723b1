package progression

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/repository"
)

// Notifier is the optional realtime sink for progression events. A nil
// Notifier is valid; correctness of state transitions never depends on it.
type Notifier interface {
	PublishToUser(userID string, event string, data interface{})
}

// Engine provides the transactional XP award primitive. The xp increment,
// level recomputation and outbox insert all run in the caller's transaction,
// so a user record never persists xp and level from different awards.
type Engine struct {
	users  repository.UserRepository
	outbox repository.OutboxRepository
	table  *Table
}

// NewEngine creates an award engine over the given repositories and table.
func NewEngine(users repository.UserRepository, outbox repository.OutboxRepository, table *Table) *Engine {
	return &Engine{users: users, outbox: outbox, table: table}
}

// Table returns the level catalog the engine computes against.
func (e *Engine) Table() *Table {
	return e.table
}

// AwardXP applies a positive XP delta to the user within tx and keeps the
// denormalized level consistent. Zero and negative amounts are a no-op, not
// an error: the result carries the unchanged state with Applied=false.
// Returns NotFound when the user row is absent.
func (e *Engine) AwardXP(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason string) (*domain.AwardResult, error) {
	if amount <= 0 {
		user, err := e.users.FindByID(ctx, tx, userID)
		if err != nil {
			return nil, fmt.Errorf("find user: %w", err)
		}
		if user == nil {
			return nil, domain.ErrNotFound("user", userID.String())
		}
		return &domain.AwardResult{
			UserID:   userID,
			XP:       user.XP,
			OldLevel: user.Level,
			NewLevel: user.Level,
		}, nil
	}

	// Server-side increment; the returned level is the pre-award one.
	user, err := e.users.AddXP(ctx, tx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("add xp: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}

	result := &domain.AwardResult{
		UserID:   userID,
		XP:       user.XP,
		OldLevel: user.Level,
		NewLevel: user.Level,
		Applied:  true,
	}

	newDef := e.table.LevelForXP(user.XP)
	if newDef.Level != user.Level {
		if err := e.users.SetLevel(ctx, tx, userID, newDef.Level); err != nil {
			return nil, err
		}
		result.NewLevel = newDef.Level
		result.LeveledUp = newDef.Level > user.Level
		if result.LeveledUp {
			if err := e.outbox.Insert(ctx, tx, domain.NewLevelUpEvent(userID, user.Level, newDef.Level, newDef.Title)); err != nil {
				return nil, err
			}
		}
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewXPAwardedEvent(userID, amount, reason, *result)); err != nil {
		return nil, err
	}

	return result, nil
}

// Service wraps the engine with transaction management and post-commit
// notifications for callers outside the quest tracker.
type Service struct {
	pool     repository.DB
	engine   *Engine
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a progression service.
func NewService(pool repository.DB, engine *Engine, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{pool: pool, engine: engine, notifier: notifier, logger: logger}
}

// Award applies an XP grant in its own transaction and notifies after commit.
func (s *Service) Award(ctx context.Context, userID uuid.UUID, amount int64, reason string) (*domain.AwardResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.AwardXP(ctx, tx, userID, amount, reason)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.NotifyAward(result)
	return result, nil
}

// NotifyAward publishes realtime events for a committed award. Safe with a
// nil sink.
func (s *Service) NotifyAward(result *domain.AwardResult) {
	if s.notifier == nil || result == nil || !result.Applied {
		return
	}
	s.notifier.PublishToUser(result.UserID.String(), "xp_awarded", result)
	if result.LeveledUp {
		def := s.engine.Table().Definition(result.NewLevel)
		s.notifier.PublishToUser(result.UserID.String(), "level_up", map[string]interface{}{
			"level": def.Level,
			"tier":  def.Tier,
			"title": def.Title,
			"quote": def.Quote,
		})
		s.logger.Info("user leveled up", "user_id", result.UserID, "old_level", result.OldLevel, "new_level", result.NewLevel)
	}
}

// Levels returns the full level table in ascending order.
func (s *Service) Levels() []domain.LevelDefinition {
	return s.engine.Table().Definitions()
}

// Snapshot returns the user's progression computed from the stored
// (level, xp) pair.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (*domain.User, Snapshot, error) {
	user, err := s.engine.users.FindByID(ctx, s.pool, userID)
	if err != nil {
		return nil, Snapshot{}, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, Snapshot{}, domain.ErrNotFound("user", userID.String())
	}
	return user, s.engine.Table().ProgressionAt(user.Level, user.XP), nil
}
