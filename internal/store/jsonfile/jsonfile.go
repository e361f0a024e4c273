// Package jsonfile persists each collection as one pretty-printed JSON
// document inside a data directory, mirroring the layout external tooling
// already reads: products.json, sales.json, categories.json, settings.json
// and users.json.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"simplepos/backend/internal/domain"
	"simplepos/backend/internal/store"
)

const (
	productsFile   = "products.json"
	salesFile      = "sales.json"
	categoriesFile = "categories.json"
	settingsFile   = "settings.json"
	usersFile      = "users.json"
)

// Store implements store.Repository over flat JSON files. Loads degrade to an
// empty collection on a missing or corrupt file; the failure is logged, never
// surfaced, so callers cannot distinguish empty from corrupt. Saves replace
// the whole file under an exclusive advisory lock plus a per-collection
// in-process mutex, which rules out interleaved bytes but not lost updates
// across read-modify-write cycles; serializing those cycles is the service
// layer's job.
type Store struct {
	dir   string
	log   *logrus.Entry
	locks map[string]*sync.Mutex
}

func New(dir string) *Store {
	locks := make(map[string]*sync.Mutex)
	for _, name := range []string{productsFile, salesFile, categoriesFile, settingsFile, usersFile} {
		locks[name] = &sync.Mutex{}
	}
	return &Store{
		dir:   dir,
		log:   logrus.WithField("component", "jsonfile-store"),
		locks: locks,
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// load decodes one collection file into dest. dest keeps its zero value when
// the file is missing, unreadable or unparsable.
func (s *Store) load(name string, dest any) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.WithError(err).WithField("collection", name).Warn("read failed, treating collection as empty")
		}
		return
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.WithError(err).WithField("collection", name).Warn("decode failed, treating collection as empty")
	}
}

// save replaces one collection file wholesale. The flock on the destination
// path keeps a concurrent writer in another process from interleaving bytes.
func (s *Store) save(name string, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o775); err != nil {
		return err
	}

	mu := s.locks[name]
	mu.Lock()
	defer mu.Unlock()

	fileLock := flock.New(s.path(name))
	if err := fileLock.Lock(); err != nil {
		return err
	}
	defer func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			s.log.WithError(unlockErr).WithField("collection", name).Warn("unlock failed")
		}
	}()

	return os.WriteFile(s.path(name), payload, 0o664)
}

func (s *Store) Products(_ context.Context) ([]domain.Product, error) {
	var products []domain.Product
	s.load(productsFile, &products)
	return products, nil
}

func (s *Store) SaveProducts(_ context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	return s.save(productsFile, products)
}

func (s *Store) Sales(_ context.Context) ([]domain.Sale, error) {
	var sales []domain.Sale
	s.load(salesFile, &sales)
	return sales, nil
}

func (s *Store) SaveSales(_ context.Context, sales []domain.Sale) error {
	if sales == nil {
		sales = []domain.Sale{}
	}
	return s.save(salesFile, sales)
}

func (s *Store) Categories(_ context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	s.load(categoriesFile, &categories)
	return categories, nil
}

func (s *Store) SaveCategories(_ context.Context, categories []domain.Category) error {
	if categories == nil {
		categories = []domain.Category{}
	}
	return s.save(categoriesFile, categories)
}

func (s *Store) Settings(_ context.Context) (domain.Settings, error) {
	var settings domain.Settings
	s.load(settingsFile, &settings)
	return settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.Settings) error {
	return s.save(settingsFile, settings)
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	var users []domain.UserAccount
	s.load(usersFile, &users)
	for _, existing := range users {
		if existing.Username == user.Username {
			return store.ErrInvalidInput
		}
	}
	users = append(users, user)
	return s.save(usersFile, users)
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	var users []domain.UserAccount
	s.load(usersFile, &users)
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	var users []domain.UserAccount
	s.load(usersFile, &users)
	for i := range users {
		if users[i].Username == username {
			users[i].Password = password
			return s.save(usersFile, users)
		}
	}
	return store.ErrNotFound
}
