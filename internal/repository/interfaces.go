package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpgsocial/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DB is the pool-level handle services hold: queryable directly and able to
// open transactions. *pgxpool.Pool satisfies it.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepository provides access to users and their embedded progression.
type UserRepository interface {
	// FindByID returns a user by ID, or nil when absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user with xp=0, level=1.
	Create(ctx context.Context, db DBTX, user *domain.User) error

	// AddXP increments the xp column with server-side arithmetic and returns
	// the user with post-increment xp and the still-stored (pre-award) level.
	// The row lock taken by the UPDATE serializes concurrent awards.
	AddXP(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (*domain.User, error)

	// SetLevel stores the recomputed level. Must run in the same transaction
	// as the AddXP that made it stale.
	SetLevel(ctx context.Context, tx pgx.Tx, id uuid.UUID, level int) error

	// IncrementQuestsCompleted bumps the stats counter.
	IncrementQuestsCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// AddBadge appends a badge if the user does not already hold one with the
	// same ID. Returns false (and writes nothing) on duplicate.
	AddBadge(ctx context.Context, db DBTX, userID uuid.UUID, badge domain.Badge) (bool, error)

	// ListBadges returns the user's badge collection ordered by unlock time.
	ListBadges(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Badge, error)
}

// LevelRepository provides access to the level_definitions catalog.
type LevelRepository interface {
	// Seed upserts the catalog by level number. Re-seeding with the same
	// definitions is a no-op apart from refreshed display strings.
	Seed(ctx context.Context, db DBTX, defs []domain.LevelDefinition) error

	// List returns the catalog ordered by level.
	List(ctx context.Context, db DBTX) ([]domain.LevelDefinition, error)
}

// ProgressRow pairs a progress record with its quest definition.
type ProgressRow struct {
	Progress   domain.QuestProgress
	Definition domain.QuestDefinition
}

// QuestRepository provides access to quest_definitions and quest_progress.
type QuestRepository interface {
	// ListDefinitions returns quest definitions, optionally only active ones.
	ListDefinitions(ctx context.Context, db DBTX, onlyActive bool) ([]domain.QuestDefinition, error)

	// FindDefinition returns a quest definition by ID, or nil when absent.
	FindDefinition(ctx context.Context, db DBTX, id uuid.UUID) (*domain.QuestDefinition, error)

	// CreateDefinition inserts a quest definition.
	CreateDefinition(ctx context.Context, db DBTX, def *domain.QuestDefinition) error

	// SetDefinitionActive toggles a definition. Returns false if absent.
	SetDefinitionActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (bool, error)

	// ActiveProgressForUpdate returns the user's active progress rows joined
	// with their definitions, locking the progress rows (FOR UPDATE).
	ActiveProgressForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]ProgressRow, error)

	// ListForUser returns active definitions left-joined with the user's
	// progress, for display.
	ListForUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]ProgressRow, error)

	// SaveProgress writes the counters, status and completion time of a row.
	SaveProgress(ctx context.Context, tx pgx.Tx, p *domain.QuestProgress) error

	// ExpireStale marks the user's active records with a past expiry as
	// expired and returns the titles of the affected quests.
	ExpireStale(ctx context.Context, tx pgx.Tx, userID uuid.UUID, now time.Time) ([]string, error)

	// UpsertDaily creates or reopens the (user, quest) record for a new daily
	// window starting at now. Returns (created, reset): both false when a
	// record for the current day already exists.
	UpsertDaily(ctx context.Context, tx pgx.Tx, userID, questID uuid.UUID, now time.Time) (created, reset bool, err error)

	// UnstartedActiveDefinitions returns active definitions the user has no
	// progress record for.
	UnstartedActiveDefinitions(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]domain.QuestDefinition, error)

	// StartProgress inserts a fresh active record. Returns false without
	// error when a concurrent transaction created the (user, quest) row
	// first.
	StartProgress(ctx context.Context, tx pgx.Tx, p *domain.QuestProgress) (bool, error)
}

// AuthUserRepository provides access to auth_users.
type AuthUserRepository interface {
	// FindByEmail returns an auth user by email, or nil when absent.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error)

	// Create inserts a new auth user.
	Create(ctx context.Context, db DBTX, user *domain.AuthUser) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the state
	// change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished removes events that have been delivered.
	MarkPublished(ctx context.Context, db DBTX, ids []uuid.UUID) error
}
