//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/rpgsocial/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadges_ListEmpty(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("nobadges@test.com", "securepass123", "nobadges")

	resp := env.AuthGET("/badges/me", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Badges []struct{} `json:"badges"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Badges)
}

func TestBadges_AdminGrantAppears(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("badge@test.com", "securepass123", "badge_user")
	admin := env.AdminToken("admin")

	resp := env.AuthPOST("/admin/users/"+userID.String()+"/badges", map[string]string{
		"badge_id": "first_blood", "name": "First Blood", "icon": "sword",
		"description": "Won a first battle",
	}, admin)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = env.AuthGET("/badges/me", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Badges []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"badges"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Badges, 1)
	assert.Equal(t, "first_blood", result.Badges[0].ID)
	assert.Equal(t, "First Blood", result.Badges[0].Name)
}

func TestBadges_RepeatGrantIsNoOp(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, userID := env.RegisterUser("repeat@test.com", "securepass123", "repeat_user")
	admin := env.AdminToken("admin")

	body := map[string]string{"badge_id": "explorer", "name": "Explorer"}

	resp := env.AuthPOST("/admin/users/"+userID.String()+"/badges", body, admin)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = env.AuthPOST("/admin/users/"+userID.String()+"/badges", body, admin)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Added bool `json:"added"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.False(t, result.Added)

	var count int
	env.Pool.QueryRow(t.Context(),
		"SELECT COUNT(*) FROM user_badges WHERE user_id = $1", userID).Scan(&count)
	assert.Equal(t, 1, count)

	// The unlock event fires only for the first grant.
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "rpg.badge.unlocked"))
}

func TestBadges_InvalidBadgeID(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, userID := env.RegisterUser("badbadge@test.com", "securepass123", "badbadge")
	admin := env.AdminToken("admin")

	resp := env.AuthPOST("/admin/users/"+userID.String()+"/badges", map[string]string{
		"badge_id": "Not A Badge!", "name": "Bad",
	}, admin)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestBadges_UnknownUser(t *testing.T) {
	env := testutil.NewTestEnv(t)
	admin := env.AdminToken("admin")

	resp := env.AuthPOST("/admin/users/00000000-0000-0000-0000-000000000001/badges",
		map[string]string{"badge_id": "ghost", "name": "Ghost"}, admin)
	testutil.AssertStatus(t, resp, http.StatusNotFound)
}
