package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUser struct{ u *entity.User }

func (s staticUser) CurrentUser() *entity.User { return s.u }

type fakeOrders struct {
	mu      sync.Mutex
	calls   atomic.Int32
	last    apiclient.CreateOrderRequest
	err     error
	release chan struct{} // when set, CreateOrder waits on it
	started chan struct{}
}

func (f *fakeOrders) CreateOrder(ctx context.Context, in apiclient.CreateOrderRequest) (*apiclient.CreateOrderResponse, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.last = in
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return &apiclient.CreateOrderResponse{
		ID:            "o-1",
		OrderNumber:   "ORD-000" + string(rune('0'+n)),
		Total:         total,
		PaymentStatus: in.PaymentStatus,
	}, nil
}

func (f *fakeOrders) lastRequest() apiclient.CreateOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

var testPoints = []entity.DeliveryPoint{
	{ID: "local", Name: "En el local", Address: "Av. Central 10"},
	{ID: "mesa-1", Name: "Mesa 1", TableID: "1"},
}

var testNow = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }

func newTestCheckout(t *testing.T, user *entity.User, orders *fakeOrders, resetDelay time.Duration) (*CheckoutService, *Cart) {
	t.Helper()
	cart := NewCart(nil)
	co := NewCheckoutService(cart, staticUser{user}, orders, CheckoutOptions{
		Points:     testPoints,
		ResetDelay: resetDelay,
		Now:        testNow,
	})
	t.Cleanup(co.Close)
	return co, cart
}

func fillScenarioCart(t *testing.T, c *Cart) {
	t.Helper()
	for _, p := range []entity.Product{product("A", "12.00"), product("A", "12.00"), product("B", "14.00")} {
		_, err := c.AddItem(p)
		require.NoError(t, err)
	}
}

var customer = &entity.User{ID: "u-1", Role: entity.RoleCustomer}

func TestOpenWithEmptyCartStaysClosed(t *testing.T) {
	orders := &fakeOrders{}
	co, _ := newTestCheckout(t, customer, orders, 0)

	for i := 0; i < 3; i++ {
		snap, err := co.Open()
		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.Equal(t, StepClosed, snap.Step)
		assert.Contains(t, snap.Message, "cart is empty")
	}
	assert.Zero(t, orders.calls.Load())
}

func TestOpenRequiresSession(t *testing.T) {
	co, cart := newTestCheckout(t, nil, &fakeOrders{}, 0)
	fillScenarioCart(t, cart)

	snap, err := co.Open()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, StepClosed, snap.Step)
}

func TestDeliveryValidation(t *testing.T) {
	co, cart := newTestCheckout(t, customer, &fakeOrders{}, 0)
	fillScenarioCart(t, cart)
	_, err := co.Open()
	require.NoError(t, err)

	snap, err := co.SubmitDelivery(DeliveryInfo{DeliveryPointID: "nowhere"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "phone")
	assert.Contains(t, ve.Fields, "deliveryPointId")
	assert.Equal(t, StepDelivery, snap.Step)
	assert.Len(t, snap.FieldErrors, 2)

	snap, err = co.SubmitDelivery(DeliveryInfo{Phone: "555-0100", DeliveryPointID: "local"})
	require.NoError(t, err)
	assert.Equal(t, StepPayment, snap.Step)
	assert.Empty(t, snap.FieldErrors)
}

func TestCashOrderSubmitsAndResets(t *testing.T) {
	orders := &fakeOrders{}
	co, cart := newTestCheckout(t, customer, orders, 200*time.Millisecond)
	fillScenarioCart(t, cart)

	_, err := co.Open()
	require.NoError(t, err)
	_, err = co.SubmitDelivery(DeliveryInfo{Phone: "555-0100", DeliveryPointID: "local", Notes: "sin hielo"})
	require.NoError(t, err)
	_, err = co.SelectPayment(entity.PaymentCashOnDelivery)
	require.NoError(t, err)

	res, err := co.Confirm(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "ORD-0001", res.OrderNumber)
	assert.True(t, decimal.RequireFromString("38").Equal(res.Total))
	assert.Equal(t, entity.PaymentPending, res.PaymentStatus)

	req := orders.lastRequest()
	assert.Equal(t, "u-1", req.UserID)
	assert.Equal(t, "Av. Central 10", req.DeliveryAddress)
	assert.Empty(t, req.TableID)
	assert.Equal(t, entity.PaymentCashOnDelivery, req.PaymentMethod)
	assert.Equal(t, entity.PaymentPending, req.PaymentStatus)
	assert.Equal(t, "sin hielo | Phone: 555-0100 | Delivery point: En el local", req.Notes)
	require.Len(t, req.Items, 2)
	assert.Equal(t, 2, req.Items[0].Quantity)

	snap := co.Snapshot()
	assert.Equal(t, StepConfirm, snap.Step)
	assert.False(t, snap.Submitting)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "ORD-0001", snap.Result.OrderNumber)

	assert.Eventually(t, func() bool {
		return co.Snapshot().Step == StepClosed && cart.IsEmpty()
	}, time.Second, 5*time.Millisecond)
}

func TestZeroResetDelayResetsInline(t *testing.T) {
	co, cart := newTestCheckout(t, customer, &fakeOrders{}, 0)
	fillScenarioCart(t, cart)

	res, err := co.SubmitOrder(context.Background(), DeliveryInfo{Phone: "555", DeliveryPointID: "mesa-1"}, entity.PaymentCashOnDelivery, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderNumber)
	assert.Equal(t, StepClosed, co.Snapshot().Step)
	assert.True(t, cart.IsEmpty())
}

func TestTablePointSendsTableID(t *testing.T) {
	orders := &fakeOrders{}
	co, cart := newTestCheckout(t, customer, orders, 0)
	fillScenarioCart(t, cart)

	_, err := co.SubmitOrder(context.Background(), DeliveryInfo{Phone: "555", DeliveryPointID: "mesa-1"}, entity.PaymentCashOnDelivery, nil)
	require.NoError(t, err)
	req := orders.lastRequest()
	assert.Equal(t, "1", req.TableID)
	assert.Empty(t, req.DeliveryAddress)
	assert.Equal(t, "Phone: 555 | Delivery point: Mesa 1", req.Notes)
}

func TestFailedSubmissionKeepsCartAndStep(t *testing.T) {
	orders := &fakeOrders{err: &apiclient.Error{Status: 500, Message: "Server error"}}
	co, cart := newTestCheckout(t, customer, orders, 0)
	fillScenarioCart(t, cart)

	_, err := co.SubmitOrder(context.Background(), DeliveryInfo{Phone: "555-0100", DeliveryPointID: "local"}, entity.PaymentCashOnDelivery, nil)
	require.Error(t, err)

	snap := co.Snapshot()
	assert.Equal(t, StepPayment, snap.Step)
	assert.Equal(t, "Server error", snap.Message)
	assert.False(t, snap.Submitting)

	lines := cart.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)

	// retry without re-entering anything
	orders.err = nil
	res, err := co.Confirm(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderNumber)
	assert.EqualValues(t, 2, orders.calls.Load())
}

func TestCardFlow(t *testing.T) {
	orders := &fakeOrders{}
	co, cart := newTestCheckout(t, customer, orders, time.Hour)
	fillScenarioCart(t, cart)

	_, _ = co.Open()
	_, _ = co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})
	_, err := co.SelectPayment(entity.PaymentCard)
	require.NoError(t, err)

	res, err := co.Confirm(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res, "confirm only opens the card form")
	assert.True(t, co.Snapshot().CardOpen)
	assert.Zero(t, orders.calls.Load())

	_, err = co.SubmitCard(context.Background(), CardDetails{Number: "1234", Holder: "Ana", Expiry: "01/20", CVV: "1"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
	assert.Zero(t, orders.calls.Load())
	assert.True(t, co.Snapshot().CardOpen)

	res, err = co.SubmitCard(context.Background(), CardDetails{Number: "4111111111111111", Holder: "Ana", Expiry: "12/29", CVV: "123"})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, res.PaymentStatus)
	assert.Equal(t, entity.PaymentPaid, orders.lastRequest().PaymentStatus)
	assert.Equal(t, StepConfirm, co.Snapshot().Step)
}

func TestSubmitWithoutCardDetails(t *testing.T) {
	orders := &fakeOrders{}
	co, cart := newTestCheckout(t, customer, orders, 0)
	fillScenarioCart(t, cart)

	_, err := co.SubmitOrder(context.Background(), DeliveryInfo{Phone: "555", DeliveryPointID: "local"}, entity.PaymentCard, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, orders.calls.Load())
}

func TestSubmissionExclusivity(t *testing.T) {
	orders := &fakeOrders{release: make(chan struct{}), started: make(chan struct{}, 1)}
	co, cart := newTestCheckout(t, customer, orders, time.Hour)
	fillScenarioCart(t, cart)
	_, _ = co.Open()
	_, _ = co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})
	_, _ = co.SelectPayment(entity.PaymentCashOnDelivery)

	done := make(chan error, 1)
	go func() {
		_, err := co.Confirm(context.Background())
		done <- err
	}()
	<-orders.started
	assert.True(t, co.Snapshot().Submitting)

	_, err := co.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = co.Back()
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = co.Cancel()
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(orders.release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, orders.calls.Load())
	assert.False(t, co.Snapshot().Submitting)
}

func TestResultAfterCloseIsDropped(t *testing.T) {
	orders := &fakeOrders{release: make(chan struct{}), started: make(chan struct{}, 1)}
	cart := NewCart(nil)
	co := NewCheckoutService(cart, staticUser{customer}, orders, CheckoutOptions{Points: testPoints, Now: testNow})
	fillScenarioCart(t, cart)
	_, _ = co.Open()
	_, _ = co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})
	_, _ = co.SelectPayment(entity.PaymentCashOnDelivery)

	done := make(chan error, 1)
	go func() {
		_, err := co.Confirm(context.Background())
		done <- err
	}()
	<-orders.started
	co.Close()
	close(orders.release)

	assert.ErrorIs(t, <-done, ErrCheckoutClosed)
	assert.Nil(t, co.Snapshot().Result)
	assert.Equal(t, 3, cart.Count(), "cart untouched by the late result")
}

func TestBackNavigation(t *testing.T) {
	co, cart := newTestCheckout(t, customer, &fakeOrders{}, time.Hour)
	fillScenarioCart(t, cart)

	_, _ = co.Open()
	_, _ = co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})
	_, _ = co.SelectPayment(entity.PaymentCard)
	_, _ = co.Confirm(context.Background())
	require.True(t, co.Snapshot().CardOpen)

	snap, err := co.Back()
	require.NoError(t, err)
	assert.Equal(t, StepPayment, snap.Step)
	assert.False(t, snap.CardOpen)

	snap, _ = co.Back()
	assert.Equal(t, StepDelivery, snap.Step)
	assert.Equal(t, "555", snap.Delivery.Phone, "form contents kept")

	snap, _ = co.Back()
	assert.Equal(t, StepClosed, snap.Step)
	assert.Equal(t, 3, cart.Count())
}

func TestWrongStepActions(t *testing.T) {
	co, cart := newTestCheckout(t, customer, &fakeOrders{}, 0)
	fillScenarioCart(t, cart)

	_, err := co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = co.SelectPayment(entity.PaymentCard)
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = co.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = co.SubmitCard(context.Background(), CardDetails{})
	assert.ErrorIs(t, err, ErrWrongStep)

	_, _ = co.Open()
	_, _ = co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})
	_, err = co.Confirm(context.Background())
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve), "no payment method chosen")
}

func TestCancelClosesWithoutClearingCart(t *testing.T) {
	co, cart := newTestCheckout(t, customer, &fakeOrders{}, 0)
	fillScenarioCart(t, cart)
	_, _ = co.Open()
	_, _ = co.SubmitDelivery(DeliveryInfo{Phone: "555", DeliveryPointID: "local"})

	snap, err := co.Cancel()
	require.NoError(t, err)
	assert.Equal(t, StepClosed, snap.Step)
	assert.Empty(t, snap.Delivery.Phone)
	assert.Equal(t, 3, cart.Count())
	assert.Equal(t, testPoints, co.DeliveryPoints())
}
