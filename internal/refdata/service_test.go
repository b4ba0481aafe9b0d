package refdata

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirana-pos/kirana/internal/shared"
)

type memRegistryRepo struct {
	nextID     int64
	categories map[int64]Category
	units      map[int64]Unit
	taxes      map[int64]Tax
	warehouses map[int64]Warehouse
}

func newMemRegistryRepo() *memRegistryRepo {
	return &memRegistryRepo{
		categories: map[int64]Category{},
		units:      map[int64]Unit{},
		taxes:      map[int64]Tax{},
		warehouses: map[int64]Warehouse{},
	}
}

func (r *memRegistryRepo) GetCategory(_ context.Context, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	return c, nil
}

func (r *memRegistryRepo) GetUnit(_ context.Context, id int64) (Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return Unit{}, fmt.Errorf("%w: unit %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (r *memRegistryRepo) GetTax(_ context.Context, id int64) (Tax, error) {
	t, ok := r.taxes[id]
	if !ok {
		return Tax{}, fmt.Errorf("%w: tax %d", shared.ErrNotFound, id)
	}
	return t, nil
}

func (r *memRegistryRepo) GetWarehouse(_ context.Context, id int64) (Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return Warehouse{}, fmt.Errorf("%w: warehouse %d", shared.ErrNotFound, id)
	}
	return w, nil
}

func (r *memRegistryRepo) ListCategories(_ context.Context) ([]Category, error) {
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memRegistryRepo) ListUnits(_ context.Context) ([]Unit, error) {
	out := make([]Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRegistryRepo) ListTaxes(_ context.Context) ([]Tax, error) {
	out := make([]Tax, 0, len(r.taxes))
	for _, t := range r.taxes {
		out = append(out, t)
	}
	return out, nil
}

func (r *memRegistryRepo) ListWarehouses(_ context.Context) ([]Warehouse, error) {
	out := make([]Warehouse, 0, len(r.warehouses))
	for _, w := range r.warehouses {
		out = append(out, w)
	}
	return out, nil
}

func (r *memRegistryRepo) CreateCategory(ctx context.Context, name string) (Category, error) {
	if exists, _ := r.CategoryExistsByName(ctx, name); exists {
		return Category{}, fmt.Errorf("%w: category %q", shared.ErrConflict, name)
	}
	r.nextID++
	c := Category{ID: r.nextID, Name: name}
	r.categories[c.ID] = c
	return c, nil
}

func (r *memRegistryRepo) CreateUnit(_ context.Context, name string) (Unit, error) {
	r.nextID++
	u := Unit{ID: r.nextID, Name: name}
	r.units[u.ID] = u
	return u, nil
}

func (r *memRegistryRepo) CreateTax(_ context.Context, name string, rate float64) (Tax, error) {
	r.nextID++
	t := Tax{ID: r.nextID, Name: name, Rate: rate, IsActive: true}
	r.taxes[t.ID] = t
	return t, nil
}

func (r *memRegistryRepo) CreateWarehouse(_ context.Context, name, address string) (Warehouse, error) {
	r.nextID++
	w := Warehouse{ID: r.nextID, Name: name, Address: address}
	r.warehouses[w.ID] = w
	return w, nil
}

func (r *memRegistryRepo) CategoryExistsByName(_ context.Context, name string) (bool, error) {
	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRegistryRepo) UnitExistsByName(_ context.Context, name string) (bool, error) {
	for _, u := range r.units {
		if u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRegistryRepo) TaxExistsByName(_ context.Context, name string) (bool, error) {
	for _, t := range r.taxes {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRegistryRepo) WarehouseExistsByName(_ context.Context, name string) (bool, error) {
	for _, w := range r.warehouses {
		if w.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func TestCreateCategoryNormalizesName(t *testing.T) {
	svc := NewService(newMemRegistryRepo())
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, "  Grocery ")
	require.NoError(t, err)
	require.Equal(t, "Grocery", c.Name)

	_, err = svc.CreateCategory(ctx, "   ")
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	// Case-insensitive duplicate.
	_, err = svc.CreateCategory(ctx, "grocery")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateTaxRateBounds(t *testing.T) {
	svc := NewService(newMemRegistryRepo())
	ctx := context.Background()

	tax, err := svc.CreateTax(ctx, "GST 5%", 5)
	require.NoError(t, err)
	require.Equal(t, float64(5), tax.Rate)

	// Inclusive bounds.
	_, err = svc.CreateTax(ctx, "Zero", 0)
	require.NoError(t, err)
	_, err = svc.CreateTax(ctx, "Full", 100)
	require.NoError(t, err)

	_, err = svc.CreateTax(ctx, "Negative", -1)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
	_, err = svc.CreateTax(ctx, "Excess", 101)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestWarehouseExists(t *testing.T) {
	repo := newMemRegistryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	w, err := svc.CreateWarehouse(ctx, "Main", "12 Market Road")
	require.NoError(t, err)

	ok, err := svc.WarehouseExists(ctx, w.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.WarehouseExists(ctx, 99)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNormalizeComposesUnicode(t *testing.T) {
	// "e" + combining acute composes to the single rune form.
	require.Equal(t, "Café", Normalize("Café "))
}
