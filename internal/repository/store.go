package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/nurpe/fireops-orders/internal/service"
)

// Store is the postgres-backed implementation of service.Store. All
// methods run against s.db, which is either the root connection or a
// transaction handle bound by InTx.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn against a transaction-bound store. gorm rolls the
// transaction back when fn returns an error.
func (s *Store) InTx(ctx context.Context, fn func(service.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
