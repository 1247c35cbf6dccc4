package controllers

import (
	"log/slog"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/ws"

	"github.com/gin-gonic/gin"
)

type WSController struct {
	hub *ws.Hub
}

func NewWSController(hub *ws.Hub) *WSController {
	return &WSController{hub: hub}
}

// GET /ws
// The socket opens with the current session, cart and checkout state.
func (w *WSController) Connect(c *gin.Context) {
	cl := utils.CurrentClient(c)
	initial := []ws.Event{
		{Type: services.EventKindSession, Data: cl.Session.Snapshot()},
		{Type: services.EventKindCart, Data: cl.Cart.Lines()},
		{Type: services.EventKindCheckout, Data: cl.Checkout.Snapshot()},
	}
	if err := w.hub.Serve(c.Writer, c.Request, cl.ID, initial...); err != nil {
		slog.Debug("ws upgrade failed", "client", cl.ID, "error", err)
	}
}
