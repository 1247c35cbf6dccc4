package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
)

type CatalogBackend interface {
	Categories(ctx context.Context) ([]entity.Category, error)
	Products(ctx context.Context, f apiclient.ProductFilter) ([]entity.Product, error)
	Product(ctx context.Context, id string) (*entity.Product, error)
}

// CatalogService reads the daily menu. It holds no state of its own.
type CatalogService struct {
	api CatalogBackend
}

func NewCatalogService(api CatalogBackend) *CatalogService {
	return &CatalogService{api: api}
}

func (s *CatalogService) Categories(ctx context.Context) ([]entity.Category, error) {
	return s.api.Categories(ctx)
}

func (s *CatalogService) Products(ctx context.Context, f apiclient.ProductFilter) ([]entity.Product, error) {
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	return s.api.Products(ctx, f)
}

// Orderable fetches a product and rejects the ones that cannot go in a cart today.
func (s *CatalogService) Orderable(ctx context.Context, id string) (entity.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.Product{}, ErrInvalidProduct
	}
	p, err := s.api.Product(ctx, id)
	if err != nil {
		return entity.Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	if !p.Available {
		return entity.Product{}, ErrProductUnavailable
	}
	return *p, nil
}
