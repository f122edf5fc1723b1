package progression

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpgsocial/platform/internal/domain"
)

// AddBadge appends a badge to the user's collection unless one with the same
// ID is already held. Returns false without mutation on duplicate, which
// makes every achievement-granting call site idempotent.
func (s *Service) AddBadge(ctx context.Context, userID uuid.UUID, badge domain.Badge) (bool, error) {
	if err := domain.ValidateBadgeID(badge.ID); err != nil {
		return false, domain.ErrValidation(err.Error())
	}
	if badge.Name == "" {
		return false, domain.ErrValidation("badge name is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	user, err := s.engine.users.FindByID(ctx, tx, userID)
	if err != nil {
		return false, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return false, domain.ErrNotFound("user", userID.String())
	}

	badge.UnlockedAt = time.Now()
	added, err := s.engine.users.AddBadge(ctx, tx, userID, badge)
	if err != nil {
		return false, domain.ErrInternal("add badge", err)
	}
	if added {
		if err := s.engine.outbox.Insert(ctx, tx, domain.NewBadgeUnlockedEvent(userID, badge)); err != nil {
			return false, domain.ErrInternal("insert badge event", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, domain.ErrInternal("commit tx", err)
	}

	if added && s.notifier != nil {
		s.notifier.PublishToUser(userID.String(), "badge_unlocked", badge)
	}
	return added, nil
}

// ListBadges returns the user's badge collection.
func (s *Service) ListBadges(ctx context.Context, userID uuid.UUID) ([]domain.Badge, error) {
	user, err := s.engine.users.FindByID(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}
	badges, err := s.engine.users.ListBadges(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("list badges", err)
	}
	return badges, nil
}
