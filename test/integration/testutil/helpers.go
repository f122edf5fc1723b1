//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rpgsocial/platform/internal/auth"
	"github.com/google/uuid"
)

// RegisterUser creates a new user and returns the auth token and user ID.
func (env *TestEnv) RegisterUser(email, password, username string) (token string, userID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterUser: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterUser: decode: %v", err)
	}
	return result.Token, result.UserID
}

// LoginUser authenticates an existing user and returns the auth token.
func (env *TestEnv) LoginUser(email, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("LoginUser: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("LoginUser: decode: %v", err)
	}
	return result.Token
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// POSTWithIdempotencyKey performs an authenticated POST with an Idempotency-Key header.
func (env *TestEnv) POSTWithIdempotencyKey(path string, body interface{}, token, key string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", key)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.POST(path, body, token)
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("PATCH %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("PATCH", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("PATCH %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("PATCH %s: %v", path, err)
	}
	return resp
}

// OPTIONS performs an OPTIONS request.
func (env *TestEnv) OPTIONS(path string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("OPTIONS", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("OPTIONS %s: new request: %v", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("OPTIONS %s: %v", path, err)
	}
	return resp
}

// AdminToken generates a JWT for an admin user with the given role.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "admin@test.com", role)
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// SeedQuest inserts an active quest definition and returns its ID.
func (env *TestEnv) SeedQuest(title, questType string, requirements map[string]int, rewardXP int64) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type req struct {
		Action string `json:"action"`
		Target int    `json:"target"`
	}
	reqs := make([]req, 0, len(requirements))
	for action, target := range requirements {
		reqs = append(reqs, req{Action: action, Target: target})
	}
	payload, err := json.Marshal(reqs)
	if err != nil {
		env.t.Fatalf("SeedQuest: marshal requirements: %v", err)
	}

	id := uuid.New()
	_, err = env.Pool.Exec(ctx, `
		INSERT INTO quest_definitions (id, title, description, type, requirements, reward_xp, active, sort_order)
		VALUES ($1, $2, '', $3, $4, $5, true, 0)`,
		id, title, questType, payload, rewardXP)
	if err != nil {
		env.t.Fatalf("SeedQuest: insert: %v", err)
	}
	return id
}

// StartQuest opens an active progress record for the user on the given quest.
func (env *TestEnv) StartQuest(userID, questID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO quest_progress (id, user_id, quest_id, status, progress, started_at, expires_at)
		VALUES ($1, $2, $3, 'active', '{}'::jsonb, now(), now() + interval '24 hours')`,
		uuid.New(), userID, questID)
	if err != nil {
		env.t.Fatalf("StartQuest: insert: %v", err)
	}
}

// DirectGrantXP credits a user's xp directly, bypassing the award service.
func (env *TestEnv) DirectGrantXP(userID uuid.UUID, amount int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE users SET xp = xp + $2, updated_at = now() WHERE id = $1",
		userID, amount)
	if err != nil {
		env.t.Fatalf("DirectGrantXP: %v", err)
	}
}

// BackdateProgress shifts a user's progress record into the past, simulating
// a record started on a previous day.
func (env *TestEnv) BackdateProgress(userID, questID uuid.UUID, age time.Duration) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, fmt.Sprintf(`
		UPDATE quest_progress
		SET started_at = now() - interval '%d seconds',
		    expires_at = now() - interval '%d seconds'
		WHERE user_id = $1 AND quest_id = $2`,
		int(age.Seconds()), int(age.Seconds())-int(time.Hour.Seconds()*24)),
		userID, questID)
	if err != nil {
		env.t.Fatalf("BackdateProgress: %v", err)
	}
}
