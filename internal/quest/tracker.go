package quest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/progression"
	"github.com/rpgsocial/platform/internal/repository"
)

// Tracker maintains per-user quest progress and issues rewards on
// completion. All state transitions for one action run in a single
// transaction; the row locks taken on progress records serialize concurrent
// updates for the same user.
type Tracker struct {
	pool     repository.DB
	quests   repository.QuestRepository
	users    repository.UserRepository
	outbox   repository.OutboxRepository
	awards   *progression.Engine
	notifier progression.Notifier
	logger   *slog.Logger
}

// NewTracker creates a quest progress tracker.
func NewTracker(
	pool repository.DB,
	quests repository.QuestRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	awards *progression.Engine,
	notifier progression.Notifier,
	logger *slog.Logger,
) *Tracker {
	return &Tracker{
		pool:     pool,
		quests:   quests,
		users:    users,
		outbox:   outbox,
		awards:   awards,
		notifier: notifier,
		logger:   logger,
	}
}

// ProgressUpdate describes one quest touched by an action.
type ProgressUpdate struct {
	QuestID  uuid.UUID          `json:"quest_id"`
	Title    string             `json:"title"`
	Status   domain.QuestStatus `json:"status"`
	Progress map[string]int     `json:"progress"`
}

// ProgressResult is returned by UpdateProgress.
type ProgressResult struct {
	Updated   []ProgressUpdate     `json:"updated_quests"`
	Completed []domain.QuestReward `json:"completed_quests"`
}

// UpdateProgress applies an action increment to every active quest of the
// user whose requirements contain the action type. A single action may
// complete several quests in one call; each completion grants its reward XP
// exactly once.
func (t *Tracker) UpdateProgress(ctx context.Context, userID uuid.UUID, actionType string, value int) (*ProgressResult, error) {
	if err := domain.ValidateActionType(actionType); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if value <= 0 {
		return nil, domain.ErrValidation("value must be positive")
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	user, err := t.users.FindByID(ctx, tx, userID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}

	rows, err := t.quests.ActiveProgressForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, domain.ErrInternal("load active quests", err)
	}

	now := time.Now()

	// Weekly and achievement quests have no reset to assign them; their
	// record opens on the first matching action. Daily quests stay with the
	// reset so their 24h window anchors there.
	started, err := t.startMatching(ctx, tx, userID, actionType, now)
	if err != nil {
		return nil, err
	}
	rows = append(rows, started...)

	result := &ProgressResult{}
	var awards []*domain.AwardResult

	for i := range rows {
		row := &rows[i]
		if !row.Definition.Requires(actionType) {
			continue
		}

		if row.Progress.IsExpired(now) {
			row.Progress.Status = domain.QuestExpired
			if err := t.quests.SaveProgress(ctx, tx, &row.Progress); err != nil {
				return nil, domain.ErrInternal("expire quest", err)
			}
			continue
		}

		row.Progress.Progress[actionType] += value

		if row.Definition.IsComplete(row.Progress.Progress) {
			row.Progress.Status = domain.QuestCompleted
			completedAt := now
			row.Progress.CompletedAt = &completedAt
			if err := t.quests.SaveProgress(ctx, tx, &row.Progress); err != nil {
				return nil, domain.ErrInternal("complete quest", err)
			}

			award, err := t.awards.AwardXP(ctx, tx, userID, row.Definition.RewardXP, "quest:"+row.Definition.Title)
			if err != nil {
				return nil, err
			}
			if err := t.users.IncrementQuestsCompleted(ctx, tx, userID); err != nil {
				return nil, domain.ErrInternal("bump quest counter", err)
			}

			reward := domain.QuestReward{
				QuestID:   row.Definition.ID,
				Title:     row.Definition.Title,
				XPGranted: row.Definition.RewardXP,
				Level:     award.NewLevel,
				LeveledUp: award.LeveledUp,
			}
			if err := t.outbox.Insert(ctx, tx, domain.NewQuestCompletedEvent(userID, reward)); err != nil {
				return nil, domain.ErrInternal("insert quest event", err)
			}
			result.Completed = append(result.Completed, reward)
			awards = append(awards, award)
			continue
		}

		if err := t.quests.SaveProgress(ctx, tx, &row.Progress); err != nil {
			return nil, domain.ErrInternal("save progress", err)
		}
		result.Updated = append(result.Updated, ProgressUpdate{
			QuestID:  row.Definition.ID,
			Title:    row.Definition.Title,
			Status:   row.Progress.Status,
			Progress: row.Progress.Progress,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	t.notifyCompletions(userID, result.Completed, awards)
	return result, nil
}

// startMatching opens progress records for unstarted non-daily definitions
// whose requirements contain the action.
func (t *Tracker) startMatching(ctx context.Context, tx pgx.Tx, userID uuid.UUID, actionType string, now time.Time) ([]repository.ProgressRow, error) {
	defs, err := t.quests.UnstartedActiveDefinitions(ctx, tx, userID)
	if err != nil {
		return nil, domain.ErrInternal("load unstarted quests", err)
	}

	var started []repository.ProgressRow
	for _, def := range defs {
		if def.Type == domain.QuestDaily || !def.Requires(actionType) {
			continue
		}
		p := domain.QuestProgress{
			ID:        uuid.New(),
			UserID:    userID,
			QuestID:   def.ID,
			Status:    domain.QuestActive,
			Progress:  map[string]int{},
			StartedAt: now,
			ExpiresAt: def.ProgressWindow(now),
		}
		inserted, err := t.quests.StartProgress(ctx, tx, &p)
		if err != nil {
			return nil, domain.ErrInternal("start quest", err)
		}
		if !inserted {
			// A concurrent request opened the record; it holds the lock
			// and will apply its own increment.
			continue
		}
		started = append(started, repository.ProgressRow{Progress: p, Definition: def})
	}
	return started, nil
}

// ResetResult is returned by ResetDailyQuests.
type ResetResult struct {
	ResetQuests   []string `json:"reset_quests"`
	NewQuests     []string `json:"new_quests"`
	ExpiredQuests []string `json:"expired_quests"`
}

// ResetDailyQuests opens a fresh 24h window for every active daily quest
// definition. Records opened earlier today are left untouched, so the reset
// is idempotent within a calendar day; the unique (user, quest) constraint
// rules out duplicate records even under concurrent resets.
func (t *Tracker) ResetDailyQuests(ctx context.Context, userID uuid.UUID) (*ResetResult, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	user, err := t.users.FindByID(ctx, tx, userID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}

	now := time.Now()
	result := &ResetResult{}

	result.ExpiredQuests, err = t.quests.ExpireStale(ctx, tx, userID, now)
	if err != nil {
		return nil, domain.ErrInternal("expire stale quests", err)
	}

	defs, err := t.quests.ListDefinitions(ctx, tx, true)
	if err != nil {
		return nil, domain.ErrInternal("list quest definitions", err)
	}

	for _, def := range defs {
		if def.Type != domain.QuestDaily {
			continue
		}
		created, reset, err := t.quests.UpsertDaily(ctx, tx, userID, def.ID, now)
		if err != nil {
			return nil, domain.ErrInternal("upsert daily quest", err)
		}
		switch {
		case created:
			result.NewQuests = append(result.NewQuests, def.Title)
		case reset:
			result.ResetQuests = append(result.ResetQuests, def.Title)
		}
	}

	if len(result.NewQuests)+len(result.ResetQuests)+len(result.ExpiredQuests) > 0 {
		draft := domain.NewQuestResetEvent(userID, result.NewQuests, result.ResetQuests, result.ExpiredQuests)
		if err := t.outbox.Insert(ctx, tx, draft); err != nil {
			return nil, domain.ErrInternal("insert reset event", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	t.logger.Info("daily quests reset",
		"user_id", userID,
		"new", len(result.NewQuests),
		"reset", len(result.ResetQuests),
		"expired", len(result.ExpiredQuests),
	)
	return result, nil
}

// ListForUser returns the user's view of active quests with progress.
func (t *Tracker) ListForUser(ctx context.Context, userID uuid.UUID) ([]repository.ProgressRow, error) {
	rows, err := t.quests.ListForUser(ctx, t.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("list quests", err)
	}
	return rows, nil
}

func (t *Tracker) notifyCompletions(userID uuid.UUID, rewards []domain.QuestReward, awards []*domain.AwardResult) {
	if t.notifier == nil {
		return
	}
	for i, reward := range rewards {
		t.notifier.PublishToUser(userID.String(), "quest_completed", reward)
		if i < len(awards) && awards[i].LeveledUp {
			def := t.awards.Table().Definition(awards[i].NewLevel)
			t.notifier.PublishToUser(userID.String(), "level_up", map[string]interface{}{
				"level": def.Level,
				"tier":  def.Tier,
				"title": def.Title,
				"quote": def.Quote,
			})
		}
	}
}
