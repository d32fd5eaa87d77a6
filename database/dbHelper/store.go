// Package dbHelper is the PostgreSQL backend.
package dbHelper

import (
	"errors"

	"storefront/service"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products() service.ProductRepository { return &ProductRepo{db: s.db} }
func (s *Store) Users() service.UserRepository       { return &UserRepo{db: s.db} }
func (s *Store) Carts() service.CartRepository       { return &CartRepo{db: s.db} }
func (s *Store) Orders() service.OrderRepository     { return &OrderRepo{db: s.db} }

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
