package refdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirana-pos/kirana/internal/shared"
)

// Repository persists reference registry rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
		}
		return Category{}, err
	}
	return c, nil
}

func (r *Repository) GetUnit(ctx context.Context, id int64) (Unit, error) {
	var u Unit
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM units WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, fmt.Errorf("%w: unit %d", shared.ErrNotFound, id)
		}
		return Unit{}, err
	}
	return u, nil
}

func (r *Repository) GetTax(ctx context.Context, id int64) (Tax, error) {
	var t Tax
	err := r.pool.QueryRow(ctx, `SELECT id, name, rate, is_active, created_at FROM taxes WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.Rate, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tax{}, fmt.Errorf("%w: tax %d", shared.ErrNotFound, id)
		}
		return Tax{}, err
	}
	return t, nil
}

func (r *Repository) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	var w Warehouse
	err := r.pool.QueryRow(ctx, `SELECT id, name, COALESCE(address, ''), created_at FROM warehouses WHERE id=$1`, id).
		Scan(&w.ID, &w.Name, &w.Address, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, fmt.Errorf("%w: warehouse %d", shared.ErrNotFound, id)
		}
		return Warehouse{}, err
	}
	return w, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ListUnits(ctx context.Context) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM units ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) ListTaxes(ctx context.Context) ([]Tax, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, rate, is_active, created_at FROM taxes ORDER BY rate ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Rate, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(address, ''), created_at FROM warehouses ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Address, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (Category, error) {
	var c Category
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id`, name, now).Scan(&c.ID)
	if err != nil {
		return Category{}, mapUnique(err, "category name")
	}
	c.Name = name
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *Repository) CreateUnit(ctx context.Context, name string) (Unit, error) {
	var u Unit
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO units (name, created_at) VALUES ($1, $2) RETURNING id`, name, now).Scan(&u.ID)
	if err != nil {
		return Unit{}, mapUnique(err, "unit name")
	}
	u.Name = name
	u.CreatedAt = now
	return u, nil
}

func (r *Repository) CreateTax(ctx context.Context, name string, rate float64) (Tax, error) {
	var t Tax
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO taxes (name, rate, is_active, created_at) VALUES ($1, $2, TRUE, $3) RETURNING id`, name, rate, now).Scan(&t.ID)
	if err != nil {
		return Tax{}, mapUnique(err, "tax name")
	}
	t.Name = name
	t.Rate = rate
	t.IsActive = true
	t.CreatedAt = now
	return t, nil
}

func (r *Repository) CreateWarehouse(ctx context.Context, name, address string) (Warehouse, error) {
	var w Warehouse
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO warehouses (name, address, created_at) VALUES ($1, NULLIF($2, ''), $3) RETURNING id`, name, address, now).Scan(&w.ID)
	if err != nil {
		return Warehouse{}, mapUnique(err, "warehouse name")
	}
	w.Name = name
	w.Address = address
	w.CreatedAt = now
	return w, nil
}

func (r *Repository) CategoryExistsByName(ctx context.Context, name string) (bool, error) {
	return r.existsByName(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE LOWER(name)=LOWER($1))`, name)
}

func (r *Repository) UnitExistsByName(ctx context.Context, name string) (bool, error) {
	return r.existsByName(ctx, `SELECT EXISTS (SELECT 1 FROM units WHERE name=$1)`, name)
}

func (r *Repository) TaxExistsByName(ctx context.Context, name string) (bool, error) {
	return r.existsByName(ctx, `SELECT EXISTS (SELECT 1 FROM taxes WHERE name=$1)`, name)
}

func (r *Repository) WarehouseExistsByName(ctx context.Context, name string) (bool, error) {
	return r.existsByName(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE name=$1)`, name)
}

func (r *Repository) existsByName(ctx context.Context, query, name string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// mapUnique translates a unique-constraint violation into ErrConflict naming
// the conflicting field.
func mapUnique(err error, field string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: duplicate %s", shared.ErrConflict, field)
	}
	return err
}
