package controllers

import (
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/pkg/resp"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"

	"github.com/gin-gonic/gin"
)

type PaymentRequest struct {
	Method entity.PaymentMethod `json:"method"`
}

type SubmitOrderRequest struct {
	Delivery      services.DeliveryInfo `json:"delivery"`
	PaymentMethod entity.PaymentMethod  `json:"paymentMethod"`
	Card          *services.CardDetails `json:"card,omitempty"`
}

type CheckoutController struct{}

func NewCheckoutController() *CheckoutController { return &CheckoutController{} }

// GET /checkout
func (h *CheckoutController) Get(c *gin.Context) {
	resp.OK(c, utils.CurrentClient(c).Checkout.Snapshot())
}

// GET /checkout/delivery-points
func (h *CheckoutController) DeliveryPoints(c *gin.Context) {
	resp.OK(c, utils.CurrentClient(c).Checkout.DeliveryPoints())
}

// POST /checkout/open
func (h *CheckoutController) Open(c *gin.Context) {
	snap, err := utils.CurrentClient(c).Checkout.Open()
	if err != nil { writeError(c, err); return }
	resp.OK(c, snap)
}

// POST /checkout/delivery
func (h *CheckoutController) Delivery(c *gin.Context) {
	var req services.DeliveryInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	snap, err := utils.CurrentClient(c).Checkout.SubmitDelivery(req)
	if err != nil { writeError(c, err); return }
	resp.OK(c, snap)
}

// POST /checkout/payment
func (h *CheckoutController) Payment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	snap, err := utils.CurrentClient(c).Checkout.SelectPayment(req.Method)
	if err != nil { writeError(c, err); return }
	resp.OK(c, snap)
}

// POST /checkout/confirm
// Cash orders are submitted here; card payments get the card form opened.
func (h *CheckoutController) Confirm(c *gin.Context) {
	co := utils.CurrentClient(c).Checkout
	res, err := co.Confirm(c.Request.Context())
	if err != nil { writeError(c, err); return }
	if res == nil {
		resp.OK(c, gin.H{"checkout": co.Snapshot()})
		return
	}
	resp.Created(c, gin.H{"order": res, "checkout": co.Snapshot()})
}

// POST /checkout/card
func (h *CheckoutController) Card(c *gin.Context) {
	var req services.CardDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	co := utils.CurrentClient(c).Checkout
	res, err := co.SubmitCard(c.Request.Context(), req)
	if err != nil { writeError(c, err); return }
	resp.Created(c, gin.H{"order": res, "checkout": co.Snapshot()})
}

// POST /checkout/submit
// One-shot submission for UIs that collect delivery and payment on one screen.
func (h *CheckoutController) Submit(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	co := utils.CurrentClient(c).Checkout
	res, err := co.SubmitOrder(c.Request.Context(), req.Delivery, req.PaymentMethod, req.Card)
	if err != nil { writeError(c, err); return }
	resp.Created(c, gin.H{"order": res, "checkout": co.Snapshot()})
}

// POST /checkout/back
func (h *CheckoutController) Back(c *gin.Context) {
	snap, err := utils.CurrentClient(c).Checkout.Back()
	if err != nil { writeError(c, err); return }
	resp.OK(c, snap)
}

// POST /checkout/cancel
func (h *CheckoutController) Cancel(c *gin.Context) {
	snap, err := utils.CurrentClient(c).Checkout.Cancel()
	if err != nil { writeError(c, err); return }
	resp.OK(c, snap)
}
