package controllers

import (
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/pkg/resp"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"
	"github.com/shopspring/decimal"

	"github.com/gin-gonic/gin"
)

type CartView struct {
	Items []entity.CartLine `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

func viewCart(cart *services.Cart) CartView {
	return CartView{Items: cart.Lines(), Total: cart.Total(), Count: cart.Count()}
}

type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}
type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
type NoteRequest struct {
	Note string `json:"note"`
}

type CartController struct{}

func NewCartController() *CartController { return &CartController{} }

// GET /cart
func (h *CartController) Get(c *gin.Context) {
	resp.OK(c, viewCart(utils.CurrentClient(c).Cart))
}

// POST /cart/items
func (h *CartController) Add(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "productId is required"); return
	}
	cl := utils.CurrentClient(c)
	p, err := cl.Catalog.Orderable(c.Request.Context(), req.ProductID)
	if err != nil { writeError(c, err); return }
	if _, err := cl.Cart.AddItem(p); err != nil { writeError(c, err); return }
	resp.Created(c, viewCart(cl.Cart))
}

// PATCH /cart/items/:productId/qty
func (h *CartController) UpdateQty(c *gin.Context) {
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "quantity is required"); return
	}
	cart := utils.CurrentClient(c).Cart
	if _, err := cart.SetQuantity(c.Param("productId"), *req.Quantity); err != nil { writeError(c, err); return }
	resp.OK(c, viewCart(cart))
}

// PATCH /cart/items/:productId/note
func (h *CartController) UpdateNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	cart := utils.CurrentClient(c).Cart
	if _, err := cart.SetNote(c.Param("productId"), req.Note); err != nil { writeError(c, err); return }
	resp.OK(c, viewCart(cart))
}

// DELETE /cart/items/:productId
func (h *CartController) Remove(c *gin.Context) {
	cart := utils.CurrentClient(c).Cart
	cart.RemoveItem(c.Param("productId"))
	resp.OK(c, viewCart(cart))
}

// DELETE /cart
func (h *CartController) Clear(c *gin.Context) {
	cart := utils.CurrentClient(c).Cart
	cart.Clear()
	resp.OK(c, viewCart(cart))
}
