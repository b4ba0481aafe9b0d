package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirana-pos/kirana/internal/ledger"
	"github.com/kirana-pos/kirana/internal/shared"
)

const materialColumns = `id, name, COALESCE(hsn, ''), COALESCE(code, ''), COALESCE(barcode, ''),
COALESCE(category_id, 0), unit_primary_id, COALESCE(unit_secondary_id, 0), conversion_factor,
purchase_rate, retail_rate, wholesale_rate, COALESCE(tax_id, 0),
purchase_rate_include_tax, retail_rate_include_tax, wholesale_rate_include_tax,
batch_enabled, serial_number_enabled, discount_amount, COALESCE(discount_type, ''),
COALESCE(warehouse_id, 0), COALESCE(image_url, ''), created_at, updated_at`

// RepositoryPort abstracts material storage.
type RepositoryPort interface {
	Create(ctx context.Context, m Material) (Material, error)
	GetByID(ctx context.Context, id int64) (Material, error)
	GetByBarcode(ctx context.Context, barcode string) (Material, error)
	Update(ctx context.Context, m Material) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ListFilter) ([]Material, error)
	Count(ctx context.Context, f ListFilter) (int, error)
	Search(ctx context.Context, query string, limit int) ([]Material, error)
	MovementMaterial(ctx context.Context, id int64) (ledger.MaterialInfo, error)
}

// Repository persists materials in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, m Material) (Material, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO materials (name, hsn, code, barcode, category_id, unit_primary_id, unit_secondary_id, conversion_factor,
purchase_rate, retail_rate, wholesale_rate, tax_id,
purchase_rate_include_tax, retail_rate_include_tax, wholesale_rate_include_tax,
batch_enabled, serial_number_enabled, discount_amount, discount_type, warehouse_id, image_url, created_at, updated_at)
VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), NULLIF($5,0), $6, NULLIF($7,0), $8,
$9, $10, $11, NULLIF($12,0), $13, $14, $15, $16, $17, $18, NULLIF($19,''), NULLIF($20,0), NULLIF($21,''), $22, $22)
RETURNING id`,
		m.Name, m.HSN, m.Code, m.Barcode, m.CategoryID, m.UnitPrimaryID, m.UnitSecondaryID, m.ConversionFactor,
		m.PurchaseRate, m.RetailRate, m.WholesaleRate, m.TaxID,
		m.PurchaseRateIncludeTax, m.RetailRateIncludeTax, m.WholesaleRateIncludeTax,
		m.BatchEnabled, m.SerialNumberEnabled, m.Discount.Amount, m.Discount.Type, m.WarehouseID, m.ImageURL, now).
		Scan(&m.ID)
	if err != nil {
		return Material{}, mapUnique(err)
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return m, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Material, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Material{}, fmt.Errorf("%w: material %d", shared.ErrNotFound, id)
		}
		return Material{}, err
	}
	return m, nil
}

func (r *Repository) GetByBarcode(ctx context.Context, barcode string) (Material, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE barcode = $1`, barcode)
	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Material{}, fmt.Errorf("%w: barcode %q", shared.ErrNotFound, barcode)
		}
		return Material{}, err
	}
	return m, nil
}

func (r *Repository) Update(ctx context.Context, m Material) error {
	tag, err := r.pool.Exec(ctx, `UPDATE materials SET name=$2, hsn=NULLIF($3,''), code=NULLIF($4,''), barcode=NULLIF($5,''),
category_id=NULLIF($6,0), unit_primary_id=$7, unit_secondary_id=NULLIF($8,0), conversion_factor=$9,
purchase_rate=$10, retail_rate=$11, wholesale_rate=$12, tax_id=NULLIF($13,0),
purchase_rate_include_tax=$14, retail_rate_include_tax=$15, wholesale_rate_include_tax=$16,
batch_enabled=$17, serial_number_enabled=$18, discount_amount=$19, discount_type=NULLIF($20,''),
warehouse_id=NULLIF($21,0), image_url=NULLIF($22,''), updated_at=NOW()
WHERE id=$1`,
		m.ID, m.Name, m.HSN, m.Code, m.Barcode,
		m.CategoryID, m.UnitPrimaryID, m.UnitSecondaryID, m.ConversionFactor,
		m.PurchaseRate, m.RetailRate, m.WholesaleRate, m.TaxID,
		m.PurchaseRateIncludeTax, m.RetailRateIncludeTax, m.WholesaleRateIncludeTax,
		m.BatchEnabled, m.SerialNumberEnabled, m.Discount.Amount, m.Discount.Type,
		m.WarehouseID, m.ImageURL)
	if err != nil {
		return mapUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %d", shared.ErrNotFound, m.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %d", shared.ErrNotFound, id)
	}
	return nil
}

// List returns materials matching the filter in the requested order.
// f.Limit 0 returns the whole matching set (used by the low-stock path,
// which paginates after the on-hand fold).
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Material, error) {
	where, args := buildFilter(f)
	query := `SELECT ` + materialColumns + ` FROM materials` + where + ` ORDER BY ` + sortOrder(f.Sort)
	if f.Limit > 0 {
		offset := (f.Page - 1) * f.Limit
		if offset < 0 {
			offset = 0
		}
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, f.Limit, offset)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var materials []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// Count returns the number of materials matching the filter, independent of
// pagination.
func (r *Repository) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildFilter(f)
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials`+where, args...).Scan(&total)
	return total, err
}

// Search is the light-weight lookup without joins.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]Material, error) {
	return r.List(ctx, ListFilter{Search: query, Page: 1, Limit: limit})
}

// MovementMaterial resolves the unit configuration and flags the ledger
// needs, with unit ids joined to names.
func (r *Repository) MovementMaterial(ctx context.Context, id int64) (ledger.MaterialInfo, error) {
	var info ledger.MaterialInfo
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(up.name, ''), COALESCE(us.name, ''), m.conversion_factor,
m.batch_enabled, m.serial_number_enabled, COALESCE(m.warehouse_id, 0)
FROM materials m
LEFT JOIN units up ON up.id = m.unit_primary_id
LEFT JOIN units us ON us.id = m.unit_secondary_id
WHERE m.id = $1`, id).
		Scan(&info.Units.Primary, &info.Units.Secondary, &info.Units.ConversionFactor,
			&info.BatchEnabled, &info.SerialNumberEnabled, &info.DefaultWarehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.MaterialInfo{}, fmt.Errorf("%w: material %d", shared.ErrNotFound, id)
		}
		return ledger.MaterialInfo{}, err
	}
	return info, nil
}

// buildFilter translates the filter into a WHERE clause. Search is a
// case-insensitive token match: every token must hit at least one of name,
// code, barcode or hsn.
func buildFilter(f ListFilter) (string, []any) {
	clauses := []string{}
	args := []any{}
	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		clauses = append(clauses, `category_id = $`+strconv.Itoa(len(args)))
	}
	for _, token := range strings.Fields(f.Search) {
		args = append(args, "%"+token+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, `(name ILIKE $`+n+` OR code ILIKE $`+n+` OR barcode ILIKE $`+n+` OR hsn ILIKE $`+n+`)`)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func sortOrder(sort string) string {
	switch sort {
	case SortNameAsc:
		return "name ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Name, &m.HSN, &m.Code, &m.Barcode,
		&m.CategoryID, &m.UnitPrimaryID, &m.UnitSecondaryID, &m.ConversionFactor,
		&m.PurchaseRate, &m.RetailRate, &m.WholesaleRate, &m.TaxID,
		&m.PurchaseRateIncludeTax, &m.RetailRateIncludeTax, &m.WholesaleRateIncludeTax,
		&m.BatchEnabled, &m.SerialNumberEnabled, &m.Discount.Amount, &m.Discount.Type,
		&m.WarehouseID, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

// mapUnique translates barcode/code uniqueness violations into ErrConflict
// naming the conflicting field.
func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := "field"
		switch {
		case strings.Contains(pgErr.ConstraintName, "barcode"):
			field = "barcode"
		case strings.Contains(pgErr.ConstraintName, "code"):
			field = "code"
		}
		return fmt.Errorf("%w: duplicate %s", shared.ErrConflict, field)
	}
	return err
}
