//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/rpgsocial/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuests_ListEmpty(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("noquests@test.com", "securepass123", "noquests")

	resp := env.AuthGET("/quests", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Quests []struct{} `json:"quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Quests)
}

func TestQuests_ListShowsProgress(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("list@test.com", "securepass123", "list_user")
	questID := env.SeedQuest("Win 3 battles", "daily", map[string]int{"battle_won": 3}, 50)
	env.StartQuest(userID, questID)

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.AuthGET("/quests", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Quests []struct {
			Title    string         `json:"title"`
			Status   string         `json:"status"`
			Progress map[string]int `json:"progress"`
		} `json:"quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Quests, 1)
	assert.Equal(t, "Win 3 battles", result.Quests[0].Title)
	assert.Equal(t, "active", result.Quests[0].Status)
	assert.Equal(t, 1, result.Quests[0].Progress["battle_won"])
}

func TestQuestProgress_CompletionAwardsXP(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("complete@test.com", "securepass123", "completer")
	questID := env.SeedQuest("First win", "daily", map[string]int{"battle_won": 1}, 120)
	env.StartQuest(userID, questID)

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Completed []struct {
			Title     string `json:"title"`
			XPGranted int64  `json:"xp_granted"`
			LeveledUp bool   `json:"leveled_up"`
		} `json:"completed_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Completed, 1)
	assert.Equal(t, int64(120), result.Completed[0].XPGranted)
	assert.True(t, result.Completed[0].LeveledUp)

	testutil.AssertProgression(t, env, userID, 120, 2)
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "rpg.quest.completed"))
}

func TestQuestProgress_OneActionAdvancesMultipleQuests(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("multi@test.com", "securepass123", "multi_user")
	q1 := env.SeedQuest("Win once", "daily", map[string]int{"battle_won": 1}, 30)
	q2 := env.SeedQuest("Win twice", "daily", map[string]int{"battle_won": 2}, 60)
	env.StartQuest(userID, q1)
	env.StartQuest(userID, q2)

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Updated   []struct{} `json:"updated_quests"`
		Completed []struct{} `json:"completed_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Len(t, result.Updated, 2)
	assert.Len(t, result.Completed, 1)
}

func TestQuestProgress_RewardGrantedOnce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("once@test.com", "securepass123", "once_user")
	questID := env.SeedQuest("Gather 2 herbs", "daily", map[string]int{"herb_gathered": 2}, 40)
	env.StartQuest(userID, questID)

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "herb_gathered", "value": 2}, token)
	resp.Body.Close()

	// Completed quests no longer match; a further report must not re-award.
	resp = env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "herb_gathered", "value": 2}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	testutil.AssertProgression(t, env, userID, 40, 1)
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "rpg.quest.completed"))
}

func TestQuestProgress_InvalidAction(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("badaction@test.com", "securepass123", "badaction")

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "Not Valid!", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestQuestProgress_IdempotencyKeyBlocksReplay(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("idem@test.com", "securepass123", "idem_user")
	questID := env.SeedQuest("Win 5 battles", "daily", map[string]int{"battle_won": 5}, 80)
	env.StartQuest(userID, questID)

	body := map[string]interface{}{"action_type": "battle_won", "value": 1}

	resp := env.POSTWithIdempotencyKey("/quests/progress", body, token, "report-1")
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POSTWithIdempotencyKey("/quests/progress", body, token, "report-1")
	testutil.AssertStatus(t, resp, http.StatusConflict)
	resp.Body.Close()
}

func TestQuestProgress_WeeklyStartsOnFirstAction(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("weekly@test.com", "securepass123", "weekly_user")
	questID := env.SeedQuest("Weekly warrior", "weekly", map[string]int{"battle_won": 2}, 100)

	// No reset or explicit start: the first matching action opens the record.
	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Updated []struct {
			Title    string         `json:"title"`
			Progress map[string]int `json:"progress"`
		} `json:"updated_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Updated, 1)
	assert.Equal(t, 1, result.Updated[0].Progress["battle_won"])

	var status string
	var expiresAt *time.Time
	env.Pool.QueryRow(t.Context(),
		"SELECT status, expires_at FROM quest_progress WHERE user_id = $1 AND quest_id = $2",
		userID, questID).Scan(&status, &expiresAt)
	assert.Equal(t, "active", status)
	require.NotNil(t, expiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *expiresAt, time.Minute)

	resp = env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	testutil.AssertProgression(t, env, userID, 100, 2)
}

func TestQuestProgress_AchievementStartsAndCompletes(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("achieve@test.com", "securepass123", "achiever")
	questID := env.SeedQuest("First blood", "achievement", map[string]int{"battle_won": 1}, 60)

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Completed []struct {
			XPGranted int64 `json:"xp_granted"`
		} `json:"completed_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Completed, 1)
	assert.Equal(t, int64(60), result.Completed[0].XPGranted)

	// Achievements never expire.
	var expiresAt *time.Time
	env.Pool.QueryRow(t.Context(),
		"SELECT expires_at FROM quest_progress WHERE user_id = $1 AND quest_id = $2",
		userID, questID).Scan(&expiresAt)
	assert.Nil(t, expiresAt)
	testutil.AssertProgression(t, env, userID, 60, 1)
}

func TestQuestProgress_DailyWaitsForReset(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("notyet@test.com", "securepass123", "notyet")
	env.SeedQuest("Daily win", "daily", map[string]int{"battle_won": 1}, 25)

	resp := env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Updated   []struct{} `json:"updated_quests"`
		Completed []struct{} `json:"completed_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Completed)
	testutil.AssertProgression(t, env, userID, 0, 1)
}

func TestDailyReset_CreatesProgressRecords(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("reset@test.com", "securepass123", "reset_user")
	env.SeedQuest("Daily win", "daily", map[string]int{"battle_won": 1}, 25)
	env.SeedQuest("Daily gather", "daily", map[string]int{"herb_gathered": 3}, 25)

	resp := env.AuthPOST("/quests/reset", nil, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		NewQuests     []string `json:"new_quests"`
		ResetQuests   []string `json:"reset_quests"`
		ExpiredQuests []string `json:"expired_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Len(t, result.NewQuests, 2)
	assert.Empty(t, result.ResetQuests)
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "rpg.quest.daily.reset"))

	// A same-day no-op reset records no event.
	resp = env.AuthPOST("/quests/reset", nil, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "rpg.quest.daily.reset"))
}

func TestDailyReset_SameDayIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("idemreset@test.com", "securepass123", "idemreset")
	questID := env.SeedQuest("Daily win", "daily", map[string]int{"battle_won": 1}, 25)

	resp := env.AuthPOST("/quests/reset", nil, token)
	resp.Body.Close()

	// Make some progress, then reset again on the same day.
	resp = env.AuthPOST("/quests/progress",
		map[string]interface{}{"action_type": "battle_won", "value": 1}, token)
	resp.Body.Close()

	resp = env.AuthPOST("/quests/reset", nil, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		NewQuests   []string `json:"new_quests"`
		ResetQuests []string `json:"reset_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.NewQuests)
	assert.Empty(t, result.ResetQuests)

	// Completed status from earlier today must survive the second reset.
	var status string
	env.Pool.QueryRow(t.Context(),
		"SELECT status FROM quest_progress WHERE user_id = $1 AND quest_id = $2",
		userID, questID).Scan(&status)
	assert.Equal(t, "completed", status)
}

func TestDailyReset_ReopensYesterdaysQuest(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("yesterday@test.com", "securepass123", "yesterday")
	questID := env.SeedQuest("Daily win", "daily", map[string]int{"battle_won": 1}, 25)
	env.StartQuest(userID, questID)
	env.BackdateProgress(userID, questID, 26*time.Hour)

	resp := env.AuthPOST("/quests/reset", nil, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		NewQuests   []string `json:"new_quests"`
		ResetQuests []string `json:"reset_quests"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.NewQuests)
	assert.Len(t, result.ResetQuests, 1)

	// Still exactly one progress record per (user, quest).
	var count int
	env.Pool.QueryRow(t.Context(),
		"SELECT COUNT(*) FROM quest_progress WHERE user_id = $1 AND quest_id = $2",
		userID, questID).Scan(&count)
	assert.Equal(t, 1, count)
}
