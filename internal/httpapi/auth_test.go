package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"simplepos/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func adminOnlyStore() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := adminOnlyStore()

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Password == "admin123" {
		t.Fatalf("expected password to be upgraded from plain-text")
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, adminOnlyStore())

	resp, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("role = %q, want admin", resp.Role)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthManager("secret-one", time.Hour, adminOnlyStore())
	verifier := NewAuthManager("secret-two", time.Hour, adminOnlyStore())

	resp, err := issuer.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestCreateCashierStoresPasswordHash(t *testing.T) {
	store := adminOnlyStore()
	manager := NewAuthManager("test-secret", time.Hour, store)

	cashier, err := manager.CreateCashier(context.Background(), domain.CashierCreateRequest{
		Username: "kamala",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}
	if cashier.Username != "kamala" || cashier.Role != "cashier" {
		t.Fatalf("unexpected cashier %+v", cashier)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	var found *domain.UserAccount
	for i := range users {
		if users[i].Username == "kamala" {
			found = &users[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected cashier to be saved")
	}
	if found.Password == "pass1234" || !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash, got %s", found.Password)
	}

	if _, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "kamala",
		Password: "pass1234",
	}); err != nil {
		t.Fatalf("login as new cashier failed: %v", err)
	}
}

func TestCreateCashierValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, adminOnlyStore())
	ctx := context.Background()

	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "ab", Password: "pass1234"}); err == nil {
		t.Fatalf("expected short username to be rejected")
	}
	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "valid", Password: "short"}); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "admin", Password: "pass1234"}); err == nil {
		t.Fatalf("expected existing username to be rejected")
	}
}

func TestListCashiersExcludesAdmins(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, adminOnlyStore())
	ctx := context.Background()

	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "beena", Password: "pass1234"}); err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}
	if _, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: "arjun", Password: "pass1234"}); err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}

	cashiers := manager.ListCashiers(ctx)
	if len(cashiers) != 2 {
		t.Fatalf("expected 2 cashiers, got %d", len(cashiers))
	}
	if cashiers[0].Username != "arjun" || cashiers[1].Username != "beena" {
		t.Fatalf("expected sorted usernames, got %+v", cashiers)
	}
	for _, c := range cashiers {
		if c.Role != "cashier" {
			t.Fatalf("admin leaked into cashier list: %+v", c)
		}
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"dora": {
				Username:  "dora",
				Password:  "password1",
				Role:      "cashier",
				Active:    false,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, store)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "dora",
		Password: "password1",
	}); err == nil {
		t.Fatalf("expected inactive account login to fail")
	}
}
