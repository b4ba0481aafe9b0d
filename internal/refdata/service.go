package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kirana-pos/kirana/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	GetCategory(ctx context.Context, id int64) (Category, error)
	GetUnit(ctx context.Context, id int64) (Unit, error)
	GetTax(ctx context.Context, id int64) (Tax, error)
	GetWarehouse(ctx context.Context, id int64) (Warehouse, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListUnits(ctx context.Context) ([]Unit, error)
	ListTaxes(ctx context.Context) ([]Tax, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	CreateUnit(ctx context.Context, name string) (Unit, error)
	CreateTax(ctx context.Context, name string, rate float64) (Tax, error)
	CreateWarehouse(ctx context.Context, name, address string) (Warehouse, error)
	CategoryExistsByName(ctx context.Context, name string) (bool, error)
	UnitExistsByName(ctx context.Context, name string) (bool, error)
	TaxExistsByName(ctx context.Context, name string) (bool, error)
	WarehouseExistsByName(ctx context.Context, name string) (bool, error)
}

// Service exposes the registry read contract and minimal mutation.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Normalize trims and NFC-normalizes a user supplied name.
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) GetUnit(ctx context.Context, id int64) (Unit, error) {
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) GetTax(ctx context.Context, id int64) (Tax, error) {
	return s.repo.GetTax(ctx, id)
}

func (s *Service) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	return s.repo.GetWarehouse(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) ListUnits(ctx context.Context) ([]Unit, error) {
	return s.repo.ListUnits(ctx)
}

func (s *Service) ListTaxes(ctx context.Context) ([]Tax, error) {
	return s.repo.ListTaxes(ctx)
}

func (s *Service) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = Normalize(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: category name is required", shared.ErrInvalidArgument)
	}
	return s.repo.CreateCategory(ctx, name)
}

func (s *Service) CreateUnit(ctx context.Context, name string) (Unit, error) {
	name = Normalize(name)
	if name == "" {
		return Unit{}, fmt.Errorf("%w: unit name is required", shared.ErrInvalidArgument)
	}
	return s.repo.CreateUnit(ctx, name)
}

// CreateTax rejects rates outside [0,100]; out-of-range values fail here, at
// the registry boundary, rather than being clamped downstream.
func (s *Service) CreateTax(ctx context.Context, name string, rate float64) (Tax, error) {
	name = Normalize(name)
	if name == "" {
		return Tax{}, fmt.Errorf("%w: tax name is required", shared.ErrInvalidArgument)
	}
	if rate < 0 || rate > 100 {
		return Tax{}, fmt.Errorf("%w: tax rate %.2f outside [0,100]", shared.ErrInvalidArgument, rate)
	}
	return s.repo.CreateTax(ctx, name, rate)
}

func (s *Service) CreateWarehouse(ctx context.Context, name, address string) (Warehouse, error) {
	name = Normalize(name)
	if name == "" {
		return Warehouse{}, fmt.Errorf("%w: warehouse name is required", shared.ErrInvalidArgument)
	}
	return s.repo.CreateWarehouse(ctx, name, strings.TrimSpace(address))
}

func (s *Service) CategoryExistsByName(ctx context.Context, name string) (bool, error) {
	return s.repo.CategoryExistsByName(ctx, Normalize(name))
}

func (s *Service) UnitExistsByName(ctx context.Context, name string) (bool, error) {
	return s.repo.UnitExistsByName(ctx, Normalize(name))
}

func (s *Service) TaxExistsByName(ctx context.Context, name string) (bool, error) {
	return s.repo.TaxExistsByName(ctx, Normalize(name))
}

func (s *Service) WarehouseExistsByName(ctx context.Context, name string) (bool, error) {
	return s.repo.WarehouseExistsByName(ctx, Normalize(name))
}

// WarehouseExists reports whether the warehouse id resolves. A missing row
// is false, not an error.
func (s *Service) WarehouseExists(ctx context.Context, id int64) (bool, error) {
	if _, err := s.repo.GetWarehouse(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
