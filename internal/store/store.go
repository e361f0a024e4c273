package store

import (
	"context"
	"errors"

	"simplepos/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the document store. Each collection is loaded and saved as a
// whole; there are no partial updates. Implementations must tolerate a missing
// or unreadable collection by returning it empty rather than failing the
// caller, and must guarantee that a save never interleaves bytes with another
// concurrent save of the same collection.
type Repository interface {
	Products(ctx context.Context) ([]domain.Product, error)
	SaveProducts(ctx context.Context, products []domain.Product) error
	Sales(ctx context.Context) ([]domain.Sale, error)
	SaveSales(ctx context.Context, sales []domain.Sale) error
	Categories(ctx context.Context) ([]domain.Category, error)
	SaveCategories(ctx context.Context, categories []domain.Category) error
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
