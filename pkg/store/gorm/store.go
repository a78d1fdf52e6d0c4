package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

// Store implements store.Store using GORM
type Store struct {
	db *gorm.DB
}

// New creates a new Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction wraps fn in a database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps constraint violations to store sentinels and wraps
// everything else in a *store.StorageError.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicateName
	}
	return store.Wrap(op, err)
}
