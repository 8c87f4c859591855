package postgres

import (
	"context"
	"database/sql"
	"errors"
)

// IdentityRepository looks up registered identities for the handshake gate.
type IdentityRepository struct {
	DB *sql.DB
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{DB: db}
}

// Exists reports whether the identity is registered.
func (r *IdentityRepository) Exists(ctx context.Context, identity string) (bool, error) {
	var one int
	query := `SELECT 1 FROM identities WHERE identity = $1`
	err := r.DB.QueryRowContext(ctx, query, identity).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
