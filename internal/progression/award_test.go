package progression

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo backs the engine with an in-memory user map so the award
// logic can be exercised without a database.
type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	m := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Create(_ context.Context, _ repository.DBTX, u *domain.User) error {
	u.Level = 1
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) AddXP(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	u.XP += amount
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) SetLevel(_ context.Context, _ pgx.Tx, id uuid.UUID, level int) error {
	f.users[id].Level = level
	return nil
}

func (f *fakeUserRepo) IncrementQuestsCompleted(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	f.users[id].QuestsCompleted++
	return nil
}

func (f *fakeUserRepo) AddBadge(_ context.Context, _ repository.DBTX, _ uuid.UUID, _ domain.Badge) (bool, error) {
	return false, nil
}

func (f *fakeUserRepo) ListBadges(_ context.Context, _ repository.DBTX, _ uuid.UUID) ([]domain.Badge, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	drafts []domain.OutboxDraft
}

func (f *fakeOutboxRepo) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	f.drafts = append(f.drafts, d)
	return nil
}

func (f *fakeOutboxRepo) FetchUnpublished(_ context.Context, _ repository.DBTX, _ int) ([]domain.OutboxDraft, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkPublished(_ context.Context, _ repository.DBTX, _ []uuid.UUID) error {
	return nil
}

func (f *fakeOutboxRepo) eventTypes() []domain.EventType {
	types := make([]domain.EventType, 0, len(f.drafts))
	for _, d := range f.drafts {
		types = append(types, d.EventType)
	}
	return types
}

func newTestEngine(users ...*domain.User) (*Engine, *fakeUserRepo, *fakeOutboxRepo) {
	userRepo := newFakeUserRepo(users...)
	outboxRepo := &fakeOutboxRepo{}
	return NewEngine(userRepo, outboxRepo, DefaultTable()), userRepo, outboxRepo
}

func freshUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Username:  "frodo",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Progression: domain.Progression{XP: 0, Level: 1},
	}
}

func TestAwardXP_SimpleGrant(t *testing.T) {
	user := freshUser()
	engine, repo, outbox := newTestEngine(user)

	result, err := engine.AwardXP(context.Background(), nil, user.ID, 50, "post")
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, int64(50), result.XP)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)

	assert.Equal(t, int64(50), repo.users[user.ID].XP)
	assert.Equal(t, []domain.EventType{domain.EventXPAwarded}, outbox.eventTypes())
}

func TestAwardXP_LevelUp(t *testing.T) {
	user := freshUser()
	engine, repo, outbox := newTestEngine(user)

	// Level 2 threshold is 100 XP.
	result, err := engine.AwardXP(context.Background(), nil, user.ID, 100, "quest")
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.XP)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, repo.users[user.ID].Level)

	assert.Equal(t, []domain.EventType{domain.EventLevelUp, domain.EventXPAwarded}, outbox.eventTypes())

	// A further 50 XP stays within level 2 (threshold for 3 is 300).
	result, err = engine.AwardXP(context.Background(), nil, user.ID, 50, "like")
	require.NoError(t, err)
	assert.Equal(t, int64(150), result.XP)
	assert.Equal(t, 2, result.NewLevel)
	assert.False(t, result.LeveledUp)
}

func TestAwardXP_MultiLevelJump(t *testing.T) {
	user := freshUser()
	engine, _, _ := newTestEngine(user)

	// 600 XP crosses levels 2 (100), 3 (300) and 4 (600) at once.
	result, err := engine.AwardXP(context.Background(), nil, user.ID, 600, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 4, result.NewLevel)
	assert.True(t, result.LeveledUp)
}

func TestAwardXP_NonPositiveAmountIsNoOp(t *testing.T) {
	user := freshUser()
	user.XP = 42
	engine, repo, outbox := newTestEngine(user)

	for _, amount := range []int64{0, -1, -100} {
		result, err := engine.AwardXP(context.Background(), nil, user.ID, amount, "suspicious")
		require.NoError(t, err)
		assert.False(t, result.Applied)
		assert.False(t, result.LeveledUp)
		assert.Equal(t, int64(42), result.XP)
	}

	assert.Equal(t, int64(42), repo.users[user.ID].XP, "stored xp must not change")
	assert.Empty(t, outbox.drafts, "no events for rejected awards")
}

func TestAwardXP_UserNotFound(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.AwardXP(context.Background(), nil, uuid.New(), 10, "post")
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	// NotFound also applies to the no-op path; awards never create users.
	_, err = engine.AwardXP(context.Background(), nil, uuid.New(), 0, "post")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestAwardXP_SequentialAccumulation(t *testing.T) {
	user := freshUser()
	engine, _, _ := newTestEngine(user)

	var last *domain.AwardResult
	for i := 0; i < 10; i++ {
		var err error
		last, err = engine.AwardXP(context.Background(), nil, user.ID, 25, "post")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(250), last.XP)
	assert.Equal(t, 2, last.NewLevel)
}
