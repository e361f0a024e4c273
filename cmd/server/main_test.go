package main

import (
	"context"
	"testing"

	"simplepos/backend/internal/config"
	"simplepos/backend/internal/store/jsonfile"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestEnsureAdminUserSeedsEmptyStore(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "first-run-password")
	repo := jsonfile.New(t.TempDir())

	if err := ensureAdminUser(context.Background(), repo); err != nil {
		t.Fatalf("ensureAdminUser: %v", err)
	}

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "admin" || users[0].Role != "admin" {
		t.Fatalf("unexpected seeded users: %+v", users)
	}
	if users[0].Password == "first-run-password" {
		t.Fatalf("seeded password stored in plain text")
	}

	// A second start must not add another account.
	if err := ensureAdminUser(context.Background(), repo); err != nil {
		t.Fatalf("ensureAdminUser second run: %v", err)
	}
	users, _ = repo.ListUsers(context.Background())
	if len(users) != 1 {
		t.Fatalf("expected exactly one account, got %d", len(users))
	}
}
