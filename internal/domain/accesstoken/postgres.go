package accesstoken

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, t Token) error {
	query := `
		INSERT INTO booking_access_tokens (id, booking_id, email, expires_at, created_at)
		VALUES (:id, :booking_id, :email, :expires_at, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Token, error) {
	var t Token
	query := `
		SELECT id, booking_id, email, expires_at, created_at
		FROM booking_access_tokens
		WHERE id = $1`
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}
