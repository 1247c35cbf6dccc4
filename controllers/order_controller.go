package controllers

import (
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/pkg/resp"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"

	"github.com/gin-gonic/gin"
)

type OrderController struct{}

func NewOrderController() *OrderController { return &OrderController{} }

// GET /orders
func (oc *OrderController) List(c *gin.Context) {
	orders, err := utils.CurrentClient(c).Orders.List(c.Request.Context())
	if err != nil { writeError(c, err); return }
	resp.OK(c, orders)
}

// GET /orders/:id
func (oc *OrderController) Detail(c *gin.Context) {
	o, err := utils.CurrentClient(c).Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil { writeError(c, err); return }
	resp.OK(c, o)
}

// POST /orders/:id/cancel
func (oc *OrderController) Cancel(c *gin.Context) {
	o, err := utils.CurrentClient(c).Orders.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil { writeError(c, err); return }
	resp.OK(c, o)
}
