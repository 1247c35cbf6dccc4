package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
)

type ProductFilter struct {
	CategoryID    string
	AvailableOnly bool
}

func (c *Client) Categories(ctx context.Context) ([]entity.Category, error) {
	var out []entity.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Products(ctx context.Context, f ProductFilter) ([]entity.Product, error) {
	q := url.Values{}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.AvailableOnly {
		q.Set("available", "true")
	}
	var out []entity.Product
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*entity.Product, error) {
	var out entity.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
