package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
)

// OrderBackend is the subset of the backend client past orders need.
type OrderBackend interface {
	OrdersByCustomer(ctx context.Context, userID string) ([]entity.Order, error)
	Order(ctx context.Context, id string) (*entity.Order, error)
	SetOrderStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error)
}

// OrderService lists and cancels the signed-in user's own orders.
type OrderService struct {
	users UserSource
	api   OrderBackend
}

func NewOrderService(users UserSource, api OrderBackend) *OrderService {
	return &OrderService{users: users, api: api}
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context) ([]entity.Order, error) {
	u := s.users.CurrentUser()
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	orders, err := s.api.OrdersByCustomer(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*entity.Order, error) {
	u := s.users.CurrentUser()
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	o, err := s.api.Order(ctx, id)
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	// someone else's order reads as missing
	if o.UserID != "" && o.UserID != u.ID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Cancel is only allowed while the kitchen has not picked the order up.
func (s *OrderService) Cancel(ctx context.Context, id string) (*entity.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Cancellable() {
		return nil, ErrNotCancellable
	}
	updated, err := s.api.SetOrderStatus(ctx, id, entity.OrderCancelled)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return nil, ErrNotCancellable
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	return updated, nil
}
