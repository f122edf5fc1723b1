//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertProgression queries the users table and asserts stored xp and level.
func AssertProgression(t *testing.T, env *TestEnv, userID uuid.UUID, xp int64, level int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var gotXP int64
	var gotLevel int
	err := env.Pool.QueryRow(ctx,
		"SELECT xp, level FROM users WHERE id = $1", userID).Scan(&gotXP, &gotLevel)
	if err != nil {
		t.Fatalf("AssertProgression: query: %v", err)
	}
	if gotXP != xp {
		t.Errorf("xp: expected %d, got %d", xp, gotXP)
	}
	if gotLevel != level {
		t.Errorf("level: expected %d, got %d", level, gotLevel)
	}
}

// CountOutboxEvents returns the number of outbox rows of the given event type.
func CountOutboxEvents(t *testing.T, env *TestEnv, eventType string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_outbox WHERE "eventType" = $1`, eventType).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}
