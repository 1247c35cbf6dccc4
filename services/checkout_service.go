package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/shopspring/decimal"
)

type Step string

const (
	StepClosed   Step = "closed"
	StepDelivery Step = "delivery"
	StepPayment  Step = "payment"
	StepConfirm  Step = "confirm"
)

type DeliveryInfo struct {
	Phone           string `json:"phone"`
	DeliveryPointID string `json:"deliveryPointId"`
	Notes           string `json:"notes"`
}

// OrderResult is what the server assigned to a submitted order.
type OrderResult struct {
	OrderID       string               `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	Total         decimal.Decimal      `json:"total"`
	PaymentStatus entity.PaymentStatus `json:"paymentStatus"`
}

type CheckoutSnapshot struct {
	Step          Step                 `json:"step"`
	Delivery      DeliveryInfo         `json:"delivery"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod,omitempty"`
	CardOpen      bool                 `json:"cardOpen"`
	Submitting    bool                 `json:"submitting"`
	Result        *OrderResult         `json:"result,omitempty"`
	Message       string               `json:"message,omitempty"`
	FieldErrors   map[string]string    `json:"fieldErrors,omitempty"`
	CartTotal     decimal.Decimal      `json:"cartTotal"`
}

// UserSource is the part of the session the checkout reads.
type UserSource interface {
	CurrentUser() *entity.User
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, in apiclient.CreateOrderRequest) (*apiclient.CreateOrderResponse, error)
}

// CheckoutService is the delivery -> payment -> confirm wizard of one client.
type CheckoutService struct {
	cart       *Cart
	users      UserSource
	orders     OrderCreator
	points     map[string]entity.DeliveryPoint
	pointList  []entity.DeliveryPoint
	resetDelay time.Duration
	now        func() time.Time
	onChange   func(CheckoutSnapshot)

	mu          sync.Mutex
	step        Step
	delivery    DeliveryInfo
	method      entity.PaymentMethod
	cardOpen    bool
	inFlight    bool
	result      *OrderResult
	message     string
	fieldErrors map[string]string
	generation  uint64
	closed      bool
	resetTimer  *time.Timer
}

type CheckoutOptions struct {
	Points     []entity.DeliveryPoint
	ResetDelay time.Duration
	Now        func() time.Time
	OnChange   func(CheckoutSnapshot)
}

func NewCheckoutService(cart *Cart, users UserSource, orders OrderCreator, opts CheckoutOptions) *CheckoutService {
	points := make(map[string]entity.DeliveryPoint, len(opts.Points))
	for _, p := range opts.Points {
		points[p.ID] = p
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CheckoutService{
		cart:       cart,
		users:      users,
		orders:     orders,
		points:     points,
		pointList:  append([]entity.DeliveryPoint(nil), opts.Points...),
		resetDelay: opts.ResetDelay,
		now:        opts.Now,
		onChange:   opts.OnChange,
		step:       StepClosed,
	}
}

// Open moves Closed -> Delivery when the user is signed in and the cart has items.
func (s *CheckoutService) Open() (CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()

	if s.step != StepClosed {
		return s.snapshotLocked(), nil
	}
	if s.users.CurrentUser() == nil {
		return s.blockLocked(ErrNotAuthenticated)
	}
	if s.cart.IsEmpty() {
		return s.blockLocked(ErrEmptyCart)
	}
	s.step = StepDelivery
	s.clearMessagesLocked()
	return s.snapshotLocked(), nil
}

// SubmitDelivery validates the delivery form and advances to Payment.
func (s *CheckoutService) SubmitDelivery(info DeliveryInfo) (CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()

	if s.step != StepDelivery {
		return s.blockLocked(ErrWrongStep)
	}
	info.Phone = strings.TrimSpace(info.Phone)
	info.DeliveryPointID = strings.TrimSpace(info.DeliveryPointID)
	info.Notes = strings.TrimSpace(info.Notes)
	s.delivery = info

	if err := s.validateDelivery(info); err != nil {
		return s.blockLocked(err)
	}
	s.step = StepPayment
	s.clearMessagesLocked()
	return s.snapshotLocked(), nil
}

func (s *CheckoutService) SelectPayment(method entity.PaymentMethod) (CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()

	if s.step != StepPayment || s.inFlight {
		return s.blockLocked(ErrWrongStep)
	}
	if !method.Valid() {
		return s.blockLocked(&ValidationError{Fields: map[string]string{"paymentMethod": "Choose a payment method"}})
	}
	s.method = method
	s.cardOpen = false
	s.clearMessagesLocked()
	return s.snapshotLocked(), nil
}

// Confirm submits a cash order, or opens the card sub-flow for card payments.
// The result is nil when only the sub-flow was opened.
func (s *CheckoutService) Confirm(ctx context.Context) (*OrderResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if s.step != StepPayment {
		_, err := s.blockLocked(ErrWrongStep)
		s.mu.Unlock()
		s.changed()
		return nil, err
	}
	switch s.method {
	case entity.PaymentCard:
		s.cardOpen = true
		s.clearMessagesLocked()
		s.mu.Unlock()
		s.changed()
		return nil, nil
	case entity.PaymentCashOnDelivery:
		s.mu.Unlock()
		return s.submit(ctx, nil)
	}
	_, err := s.blockLocked(&ValidationError{Fields: map[string]string{"paymentMethod": "Choose a payment method"}})
	s.mu.Unlock()
	s.changed()
	return nil, err
}

// SubmitCard validates the card form and submits the order as paid.
func (s *CheckoutService) SubmitCard(ctx context.Context, card CardDetails) (*OrderResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if s.step != StepPayment || !s.cardOpen || s.method != entity.PaymentCard {
		_, err := s.blockLocked(ErrWrongStep)
		s.mu.Unlock()
		s.changed()
		return nil, err
	}
	s.mu.Unlock()
	return s.submit(ctx, &card)
}

// SubmitOrder runs the whole submission in one call for callers that
// collected delivery and payment data themselves.
func (s *CheckoutService) SubmitOrder(ctx context.Context, info DeliveryInfo, method entity.PaymentMethod, card *CardDetails) (*OrderResult, error) {
	if _, err := s.Open(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if s.step != StepDelivery && s.step != StepPayment {
		s.mu.Unlock()
		return nil, ErrWrongStep
	}
	s.step = StepDelivery
	s.cardOpen = false
	s.mu.Unlock()

	if _, err := s.SubmitDelivery(info); err != nil {
		return nil, err
	}
	if _, err := s.SelectPayment(method); err != nil {
		return nil, err
	}
	if method == entity.PaymentCard {
		if card == nil {
			return nil, &ValidationError{Fields: map[string]string{"card": "Card details are required"}}
		}
		s.mu.Lock()
		s.cardOpen = true
		s.mu.Unlock()
		return s.SubmitCard(ctx, *card)
	}
	return s.Confirm(ctx)
}

// Back steps one screen back. Leaving Delivery closes the wizard with the
// cart untouched.
func (s *CheckoutService) Back() (CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()

	if s.inFlight {
		return s.snapshotLocked(), ErrSubmissionInFlight
	}
	switch s.step {
	case StepDelivery:
		s.resetLocked(false)
	case StepPayment:
		if s.cardOpen {
			s.cardOpen = false
		} else {
			s.step = StepDelivery
		}
		s.clearMessagesLocked()
	case StepConfirm:
		s.resetLocked(true)
	}
	return s.snapshotLocked(), nil
}

// Cancel closes the wizard from any step.
func (s *CheckoutService) Cancel() (CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()

	if s.inFlight {
		return s.snapshotLocked(), ErrSubmissionInFlight
	}
	s.resetLocked(s.step == StepConfirm)
	return s.snapshotLocked(), nil
}

func (s *CheckoutService) Snapshot() CheckoutSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CheckoutService) DeliveryPoints() []entity.DeliveryPoint {
	return append([]entity.DeliveryPoint(nil), s.pointList...)
}

// Close drops the wizard; a submission still running will not touch state.
func (s *CheckoutService) Close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.mu.Unlock()
}

func (s *CheckoutService) submit(ctx context.Context, card *CardDetails) (*OrderResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	user := s.users.CurrentUser()
	if user == nil {
		_, err := s.blockLocked(ErrNotAuthenticated)
		s.mu.Unlock()
		s.changed()
		return nil, err
	}
	lines := s.cart.Lines()
	if len(lines) == 0 {
		_, err := s.blockLocked(ErrEmptyCart)
		s.mu.Unlock()
		s.changed()
		return nil, err
	}
	if err := s.validateDelivery(s.delivery); err != nil {
		_, err = s.blockLocked(err)
		s.mu.Unlock()
		s.changed()
		return nil, err
	}
	if card != nil {
		if err := ValidateCard(*card, s.now()); err != nil {
			_, err = s.blockLocked(err)
			s.mu.Unlock()
			s.changed()
			return nil, err
		}
	}

	req := buildOrderRequest(user.ID, lines, s.delivery, s.points[s.delivery.DeliveryPointID], s.method)
	gen := s.generation
	s.inFlight = true
	s.clearMessagesLocked()
	s.mu.Unlock()
	s.changed()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
		s.changed()
	}()

	res, err := s.orders.CreateOrder(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		if err == nil {
			slog.Warn("order created after checkout was closed", "order", res.OrderNumber)
		}
		return nil, ErrCheckoutClosed
	}
	if err != nil {
		s.message = err.Error()
		return nil, err
	}

	result := &OrderResult{
		OrderID:       res.ID,
		OrderNumber:   res.OrderNumber,
		Total:         res.Total,
		PaymentStatus: res.PaymentStatus,
	}
	if result.PaymentStatus == "" {
		result.PaymentStatus = req.PaymentStatus
	}
	s.result = result
	s.step = StepConfirm
	s.cardOpen = false
	slog.Info("order submitted", "user", user.ID, "order", result.OrderNumber, "method", s.method)
	s.scheduleResetLocked()
	return result, nil
}

func (s *CheckoutService) validateDelivery(info DeliveryInfo) error {
	fields := map[string]string{}
	if strings.TrimSpace(info.Phone) == "" {
		fields["phone"] = "Phone number is required"
	}
	if info.DeliveryPointID == "" {
		fields["deliveryPointId"] = "Select a delivery point"
	} else if _, ok := s.points[info.DeliveryPointID]; !ok {
		fields["deliveryPointId"] = "Select a valid delivery point"
	}
	return newValidationError(fields)
}

func (s *CheckoutService) scheduleResetLocked() {
	if s.resetDelay <= 0 {
		s.resetLocked(true)
		return
	}
	gen := s.generation
	s.resetTimer = time.AfterFunc(s.resetDelay, func() {
		s.mu.Lock()
		if s.closed || s.generation != gen || s.step != StepConfirm {
			s.mu.Unlock()
			return
		}
		s.resetLocked(true)
		s.mu.Unlock()
		s.changed()
	})
}

func (s *CheckoutService) resetLocked(clearCart bool) {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.step = StepClosed
	s.delivery = DeliveryInfo{}
	s.method = ""
	s.cardOpen = false
	s.result = nil
	s.clearMessagesLocked()
	s.generation++
	if clearCart {
		s.cart.Clear()
	}
}

func (s *CheckoutService) blockLocked(err error) (CheckoutSnapshot, error) {
	s.message = err.Error()
	s.fieldErrors = nil
	if ve, ok := err.(*ValidationError); ok {
		s.fieldErrors = ve.Fields
	}
	return s.snapshotLocked(), err
}

func (s *CheckoutService) clearMessagesLocked() {
	s.message = ""
	s.fieldErrors = nil
}

func (s *CheckoutService) snapshotLocked() CheckoutSnapshot {
	snap := CheckoutSnapshot{
		Step:          s.step,
		Delivery:      s.delivery,
		PaymentMethod: s.method,
		CardOpen:      s.cardOpen,
		Submitting:    s.inFlight,
		Message:       s.message,
		CartTotal:     s.cart.Total(),
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if len(s.fieldErrors) > 0 {
		snap.FieldErrors = make(map[string]string, len(s.fieldErrors))
		for k, v := range s.fieldErrors {
			snap.FieldErrors[k] = v
		}
	}
	return snap
}

func (s *CheckoutService) changed() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}

func buildOrderRequest(userID string, lines []entity.CartLine, info DeliveryInfo, point entity.DeliveryPoint, method entity.PaymentMethod) apiclient.CreateOrderRequest {
	items := make([]apiclient.OrderItemRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, apiclient.OrderItemRequest{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Note:      l.Note,
		})
	}
	req := apiclient.CreateOrderRequest{
		UserID:        userID,
		Items:         items,
		Notes:         orderNotes(info, point),
		PaymentMethod: method,
		PaymentStatus: method.Status(),
	}
	if point.TableID != "" {
		req.TableID = point.TableID
	} else {
		req.DeliveryAddress = point.Address
	}
	return req
}

// orderNotes keeps phone and delivery point visible to staff next to the user's notes.
func orderNotes(info DeliveryInfo, point entity.DeliveryPoint) string {
	parts := make([]string, 0, 3)
	if n := strings.TrimSpace(info.Notes); n != "" {
		parts = append(parts, n)
	}
	parts = append(parts, "Phone: "+info.Phone, "Delivery point: "+point.Name)
	return strings.Join(parts, " | ")
}
