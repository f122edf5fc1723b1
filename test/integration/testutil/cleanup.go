//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates all tables in dependency-safe order.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"quest_progress",
		"quest_definitions",
		"user_badges",
		"event_outbox",
		"login_attempts",
		"auth_users",
		"users",
		"level_definitions",
	}

	for _, table := range tables {
		if _, err := env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			env.t.Logf("CleanAll: truncate %s: %v", table, err)
		}
	}
}
