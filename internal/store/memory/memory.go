// Package memory provides a seeded in-memory store.Repository for dev/demo
// mode and for tests. Collections are replaced wholesale on save, matching
// the file-backed store's contract.
package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"simplepos/backend/internal/domain"
	"simplepos/backend/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	products   []domain.Product
	sales      []domain.Sale
	categories []domain.Category
	settings   domain.Settings
	users      map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used with a real
// data directory (the backend uses the file store when DATA_DIR is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func NewSeeded() *Store {
	const seededAt = "2025-05-18 09:00:00"

	categories := []domain.Category{
		{ID: "C1", Name: "Beverages"},
		{ID: "C2", Name: "Groceries"},
		{ID: "C3", Name: "Household"},
	}

	products := []domain.Product{
		{ID: "P1", Name: "Ceylon Tea 100g", CategoryID: "C1", CategoryName: "Beverages", Price: price("450.00"), Unit: "pack", Stock: 40, LowStockThreshold: 10, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P2", Name: "Instant Coffee 50g", CategoryID: "C1", CategoryName: "Beverages", Price: price("780.00"), Unit: "jar", Stock: 25, LowStockThreshold: 5, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P3", Name: "Milk Powder 400g", CategoryID: "C1", CategoryName: "Beverages", Price: price("1150.00"), Unit: "pack", Stock: 30, LowStockThreshold: 8, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P4", Name: "White Rice 1kg", CategoryID: "C2", CategoryName: "Groceries", Price: price("290.00"), Unit: "kg", Stock: 80, LowStockThreshold: 20, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P5", Name: "Red Lentils 500g", CategoryID: "C2", CategoryName: "Groceries", Price: price("340.00"), Unit: "pack", Stock: 60, LowStockThreshold: 15, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P6", Name: "Coconut Oil 750ml", CategoryID: "C2", CategoryName: "Groceries", Price: price("980.00"), Unit: "bottle", Stock: 22, LowStockThreshold: 6, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P7", Name: "Laundry Soap", CategoryID: "C3", CategoryName: "Household", Price: price("120.00"), Unit: "bar", Stock: 100, LowStockThreshold: 25, DateAdded: seededAt, LastUpdated: seededAt},
		{ID: "P8", Name: "Dish Liquid 500ml", CategoryID: "C3", CategoryName: "Household", Price: price("390.00"), Unit: "bottle", Stock: 18, LowStockThreshold: 5, DateAdded: seededAt, LastUpdated: seededAt},
	}

	settings := domain.Settings{
		ShopName:       "SimplePOS Demo Store",
		Address:        "12 Galle Road, Colombo",
		Contact:        "011-2345678",
		CurrencySymbol: "Rs.",
		TaxRatePercent: price("8.00"),
	}

	return &Store{
		products:   products,
		sales:      []domain.Sale{},
		categories: categories,
		settings:   settings,
		users:      seedUsers(),
	}
}

func (s *Store) Products(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products), nil
}

func (s *Store) SaveProducts(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = slices.Clone(products)
	return nil
}

func (s *Store) Sales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sales), nil
}

func (s *Store) SaveSales(_ context.Context, sales []domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = slices.Clone(sales)
	return nil
}

func (s *Store) Categories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories), nil
}

func (s *Store) SaveCategories(_ context.Context, categories []domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = slices.Clone(categories)
	return nil
}

func (s *Store) Settings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		if a.Username < b.Username {
			return -1
		}
		if a.Username > b.Username {
			return 1
		}
		return 0
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}
