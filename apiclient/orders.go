package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient")

type OrderItemRequest struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Note      string          `json:"note,omitempty"`
}

// CreateOrderRequest targets either a table (TableID) or an address.
type CreateOrderRequest struct {
	UserID          string               `json:"userId"`
	TableID         string               `json:"tableId,omitempty"`
	DeliveryAddress string               `json:"deliveryAddress,omitempty"`
	Items           []OrderItemRequest   `json:"items"`
	Notes           string               `json:"notes,omitempty"`
	PaymentMethod   entity.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   entity.PaymentStatus `json:"paymentStatus"`
}

type CreateOrderResponse struct {
	ID            string               `json:"id"`
	OrderNumber   string               `json:"orderNumber"`
	Total         decimal.Decimal      `json:"total"`
	PaymentStatus entity.PaymentStatus `json:"paymentStatus"`
}

func (c *Client) CreateOrder(ctx context.Context, in CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := tracer.Start(ctx, "apiclient.CreateOrder", trace.WithAttributes(
		attribute.String("order.payment_method", string(in.PaymentMethod)),
		attribute.Int("order.items", len(in.Items)),
	))
	defer span.End()

	var out CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", nil, in, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("order.number", out.OrderNumber))
	return &out, nil
}

func (c *Client) OrdersByCustomer(ctx context.Context, userID string) ([]entity.Order, error) {
	q := url.Values{"customerId": {userID}}
	var out []entity.Order
	if err := c.do(ctx, http.MethodGet, "/orders", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*entity.Order, error) {
	var out entity.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetOrderStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error) {
	body := map[string]entity.OrderStatus{"status": status}
	var out entity.Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
