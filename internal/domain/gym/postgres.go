package gym

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gymstay/backend/internal/domain/pricing"
)

// PostgresRepo reads the catalog from the gyms, gym_packages and package_variants tables.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetGym(ctx context.Context, gymID string) (*Gym, error) {
	var row struct {
		Gym
		OwnerIds pq.StringArray `db:"owner_ids"`
	}
	query := `
		SELECT id, name, COALESCE(email, '') AS email, currency,
		       COALESCE(city, '') AS city, COALESCE(country, '') AS country, verification_status,
		       COALESCE(owner_uid, '') AS owner_uid, owner_ids, created_at, updated_at
		FROM gyms
		WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, gymID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("gym %s: %w", gymID, ErrNotFound)
		}
		return nil, err
	}
	g := row.Gym
	g.OwnerIds = []string(row.OwnerIds)
	return &g, nil
}

func (r *PostgresRepo) GetPackage(ctx context.Context, gymID, packageID string) (*Package, error) {
	var p Package
	query := `
		SELECT id, gym_id, name, type, pricing_mode, daily_rate, weekly_rate, monthly_rate,
		       min_stay_days, active
		FROM gym_packages
		WHERE id = $1 AND gym_id = $2`
	if err := r.db.GetContext(ctx, &p, query, packageID, gymID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("package %s: %w", packageID, ErrNotFound)
		}
		return nil, err
	}

	optsQuery := `
		SELECT duration_days, price, COALESCE(label, '') AS label
		FROM package_fixed_options
		WHERE package_id = $1
		ORDER BY duration_days`
	var opts []struct {
		DurationDays int     `db:"duration_days"`
		Price        float64 `db:"price"`
		Label        string  `db:"label"`
	}
	if err := r.db.SelectContext(ctx, &opts, optsQuery, packageID); err != nil {
		return nil, err
	}
	for _, o := range opts {
		p.Options = append(p.Options, pricing.FixedOption{DurationDays: o.DurationDays, Price: o.Price, Label: o.Label})
	}
	return &p, nil
}

func (r *PostgresRepo) GetVariant(ctx context.Context, gymID, packageID, variantID string) (*Variant, error) {
	var v Variant
	query := `
		SELECT v.id, v.package_id, v.name, v.daily_rate, v.weekly_rate, v.monthly_rate, v.price
		FROM package_variants v
		JOIN gym_packages p ON p.id = v.package_id
		WHERE v.id = $1 AND v.package_id = $2 AND p.gym_id = $3`
	if err := r.db.GetContext(ctx, &v, query, variantID, packageID, gymID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("variant %s: %w", variantID, ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}
