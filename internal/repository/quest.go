package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rpgsocial/platform/internal/domain"
)

type questRepo struct{}

// NewQuestRepository returns a pgx-backed QuestRepository.
func NewQuestRepository() QuestRepository {
	return &questRepo{}
}

const definitionColumns = `id, title, description, type, requirements, reward_xp, active, sort_order, created_at`

func (r *questRepo) ListDefinitions(ctx context.Context, db DBTX, onlyActive bool) ([]domain.QuestDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM quest_definitions`
	if onlyActive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query quest definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.QuestDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *d)
	}
	return defs, rows.Err()
}

func (r *questRepo) FindDefinition(ctx context.Context, db DBTX, id uuid.UUID) (*domain.QuestDefinition, error) {
	row := db.QueryRow(ctx, `
		SELECT `+definitionColumns+`
		FROM quest_definitions WHERE id = $1`, id)
	d, err := scanDefinition(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *questRepo) CreateDefinition(ctx context.Context, db DBTX, def *domain.QuestDefinition) error {
	reqs, err := json.Marshal(def.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO quest_definitions (id, title, description, type, requirements, reward_xp, active, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		def.ID, def.Title, def.Description, string(def.Type), reqs, def.RewardXP, def.Active, def.SortOrder)
	if err != nil {
		return fmt.Errorf("insert quest definition: %w", err)
	}
	return nil
}

func (r *questRepo) SetDefinitionActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE quest_definitions SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return false, fmt.Errorf("toggle quest definition: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ActiveProgressForUpdate locks the user's active progress rows so a
// concurrent update on the same quests serializes behind this transaction.
func (r *questRepo) ActiveProgressForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]ProgressRow, error) {
	rows, err := tx.Query(ctx, `
		SELECT qp.id, qp.user_id, qp.quest_id, qp.status, qp.progress,
		       qp.started_at, qp.expires_at, qp.completed_at,
		       qd.id, qd.title, qd.description, qd.type, qd.requirements,
		       qd.reward_xp, qd.active, qd.sort_order, qd.created_at
		FROM quest_progress qp
		JOIN quest_definitions qd ON qd.id = qp.quest_id
		WHERE qp.user_id = $1 AND qp.status = 'active' AND qd.active = true
		ORDER BY qd.sort_order ASC
		FOR UPDATE OF qp`, userID)
	if err != nil {
		return nil, fmt.Errorf("query active progress: %w", err)
	}
	defer rows.Close()
	return collectProgressRows(rows, false)
}

func (r *questRepo) ListForUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]ProgressRow, error) {
	rows, err := db.Query(ctx, `
		SELECT qp.id, qp.user_id, qp.quest_id, qp.status, qp.progress,
		       qp.started_at, qp.expires_at, qp.completed_at,
		       qd.id, qd.title, qd.description, qd.type, qd.requirements,
		       qd.reward_xp, qd.active, qd.sort_order, qd.created_at
		FROM quest_definitions qd
		LEFT JOIN quest_progress qp ON qp.quest_id = qd.id AND qp.user_id = $1
		WHERE qd.active = true
		ORDER BY qd.sort_order ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user quests: %w", err)
	}
	defer rows.Close()
	return collectProgressRows(rows, true)
}

func (r *questRepo) SaveProgress(ctx context.Context, tx pgx.Tx, p *domain.QuestProgress) error {
	counts, err := json.Marshal(p.Progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE quest_progress
		SET status = $1, progress = $2, completed_at = $3
		WHERE id = $4`,
		string(p.Status), counts, p.CompletedAt, p.ID)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save progress: record %s vanished mid-transaction", p.ID)
	}
	return nil
}

func (r *questRepo) ExpireStale(ctx context.Context, tx pgx.Tx, userID uuid.UUID, now time.Time) ([]string, error) {
	rows, err := tx.Query(ctx, `
		UPDATE quest_progress qp
		SET status = 'expired'
		FROM quest_definitions qd
		WHERE qd.id = qp.quest_id
		  AND qp.user_id = $1 AND qp.status = 'active'
		  AND qp.expires_at IS NOT NULL AND qp.expires_at < $2
		RETURNING qd.title`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("expire stale progress: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan expired title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// UpsertDaily leans on the (user_id, quest_id) unique constraint: a record
// already opened today makes the conditional update a no-op, so calling the
// reset twice in one day neither duplicates nor re-resets. The xmax=0 check
// distinguishes a fresh insert from a reopened record.
func (r *questRepo) UpsertDaily(ctx context.Context, tx pgx.Tx, userID, questID uuid.UUID, now time.Time) (bool, bool, error) {
	expires := now.Add(domain.DailyQuestWindow)
	var inserted bool
	err := tx.QueryRow(ctx, `
		INSERT INTO quest_progress (id, user_id, quest_id, status, progress, started_at, expires_at, completed_at)
		VALUES ($1, $2, $3, 'active', '{}'::jsonb, $4, $5, NULL)
		ON CONFLICT (user_id, quest_id) DO UPDATE
		SET status = 'active', progress = '{}'::jsonb,
		    started_at = EXCLUDED.started_at, expires_at = EXCLUDED.expires_at,
		    completed_at = NULL
		WHERE quest_progress.started_at < date_trunc('day', EXCLUDED.started_at)
		RETURNING (xmax = 0)`,
		uuid.New(), userID, questID, now, expires).Scan(&inserted)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Conflict row is already from today: idempotent no-op.
			return false, false, nil
		}
		return false, false, fmt.Errorf("upsert daily progress: %w", err)
	}
	if inserted {
		return true, false, nil
	}
	return false, true, nil
}

func (r *questRepo) UnstartedActiveDefinitions(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]domain.QuestDefinition, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+definitionColumns+`
		FROM quest_definitions qd
		WHERE qd.active = true
		  AND NOT EXISTS (
			SELECT 1 FROM quest_progress qp
			WHERE qp.quest_id = qd.id AND qp.user_id = $1
		  )
		ORDER BY qd.sort_order ASC, qd.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query unstarted definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.QuestDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *d)
	}
	return defs, rows.Err()
}

func (r *questRepo) StartProgress(ctx context.Context, tx pgx.Tx, p *domain.QuestProgress) (bool, error) {
	counts, err := json.Marshal(p.Progress)
	if err != nil {
		return false, fmt.Errorf("marshal progress: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO quest_progress (id, user_id, quest_id, status, progress, started_at, expires_at, completed_at)
		VALUES ($1, $2, $3, 'active', $4, $5, $6, NULL)
		ON CONFLICT (user_id, quest_id) DO NOTHING`,
		p.ID, p.UserID, p.QuestID, counts, p.StartedAt, p.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("start progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanDefinition(row pgx.Row) (*domain.QuestDefinition, error) {
	var d domain.QuestDefinition
	var qType string
	var reqs []byte
	err := row.Scan(&d.ID, &d.Title, &d.Description, &qType, &reqs,
		&d.RewardXP, &d.Active, &d.SortOrder, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan quest definition: %w", err)
	}
	d.Type = domain.QuestType(qType)
	if err := json.Unmarshal(reqs, &d.Requirements); err != nil {
		return nil, fmt.Errorf("unmarshal requirements: %w", err)
	}
	return &d, nil
}

// collectProgressRows scans joined (progress, definition) rows. With
// allowMissing, progress columns may be NULL (left join) and yield a zero
// QuestProgress.
func collectProgressRows(rows pgx.Rows, allowMissing bool) ([]ProgressRow, error) {
	var out []ProgressRow
	for rows.Next() {
		var pr ProgressRow
		var pID, pUserID, pQuestID *uuid.UUID
		var pStatus *string
		var pCounts []byte
		var pStarted, pExpires, pCompleted *time.Time
		var qType string
		var reqs []byte

		err := rows.Scan(&pID, &pUserID, &pQuestID, &pStatus, &pCounts,
			&pStarted, &pExpires, &pCompleted,
			&pr.Definition.ID, &pr.Definition.Title, &pr.Definition.Description,
			&qType, &reqs, &pr.Definition.RewardXP, &pr.Definition.Active,
			&pr.Definition.SortOrder, &pr.Definition.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		pr.Definition.Type = domain.QuestType(qType)
		if err := json.Unmarshal(reqs, &pr.Definition.Requirements); err != nil {
			return nil, fmt.Errorf("unmarshal requirements: %w", err)
		}

		if pID == nil {
			if !allowMissing {
				return nil, fmt.Errorf("unexpected NULL progress row for quest %s", pr.Definition.ID)
			}
			pr.Progress = domain.QuestProgress{
				QuestID:  pr.Definition.ID,
				Progress: map[string]int{},
			}
			out = append(out, pr)
			continue
		}

		pr.Progress = domain.QuestProgress{
			ID:          *pID,
			UserID:      *pUserID,
			QuestID:     *pQuestID,
			Status:      domain.QuestStatus(*pStatus),
			StartedAt:   *pStarted,
			ExpiresAt:   pExpires,
			CompletedAt: pCompleted,
		}
		if err := json.Unmarshal(pCounts, &pr.Progress.Progress); err != nil {
			return nil, fmt.Errorf("unmarshal progress counts: %w", err)
		}
		if pr.Progress.Progress == nil {
			pr.Progress.Progress = map[string]int{}
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}
