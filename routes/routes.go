package routes

import (
	"log/slog"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/configs"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/controllers"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/middlewares"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/ws"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cfg *configs.Config, reg *services.Registry, hub *ws.Hub, log *slog.Logger) {
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RequestLogger(log))
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Controllers
	authCtrl := controllers.NewAuthController()
	menuCtrl := controllers.NewMenuController()
	cartCtrl := controllers.NewCartController()
	checkoutCtrl := controllers.NewCheckoutController()
	orderCtrl := controllers.NewOrderController()
	wsCtrl := controllers.NewWSController(hub)

	// every route below belongs to one browser tab
	t := r.Group("/", middlewares.ClientMiddleware(reg, cfg.CookieSecure, cfg.ClientIdleTTL))

	// Auth (public)
	a := t.Group("/auth")
	{
		a.POST("/login", authCtrl.Login)
		a.POST("/provider", authCtrl.Provider)
		a.POST("/register", authCtrl.Register)
		a.POST("/logout", authCtrl.Logout)
		a.GET("/me", authCtrl.Me)
	}

	// Auth (protected)
	aAuth := a.Group("", middlewares.RequireSession())
	{
		aAuth.PATCH("/me", authCtrl.UpdateMe)
		aAuth.PUT("/password", authCtrl.ChangePassword)
	}

	// Daily menu
	m := t.Group("/menu")
	{
		m.GET("/categories", menuCtrl.Categories)
		m.GET("/products", menuCtrl.Products)
	}

	// Cart (memory only, no sign-in needed)
	cart := t.Group("/cart")
	{
		cart.GET("", cartCtrl.Get)
		cart.DELETE("", cartCtrl.Clear)
		cart.POST("/items", cartCtrl.Add)
		cart.PATCH("/items/:productId/qty", cartCtrl.UpdateQty)
		cart.PATCH("/items/:productId/note", cartCtrl.UpdateNote)
		cart.DELETE("/items/:productId", cartCtrl.Remove)
	}

	// Checkout wizard; opening it checks the session itself
	co := t.Group("/checkout")
	{
		co.GET("", checkoutCtrl.Get)
		co.GET("/delivery-points", checkoutCtrl.DeliveryPoints)
		co.POST("/open", checkoutCtrl.Open)
		co.POST("/delivery", checkoutCtrl.Delivery)
		co.POST("/payment", checkoutCtrl.Payment)
		co.POST("/confirm", checkoutCtrl.Confirm)
		co.POST("/card", checkoutCtrl.Card)
		co.POST("/submit", checkoutCtrl.Submit)
		co.POST("/back", checkoutCtrl.Back)
		co.POST("/cancel", checkoutCtrl.Cancel)
	}

	// Past orders (signed-in user)
	o := t.Group("/orders", middlewares.RequireSession())
	{
		o.GET("", orderCtrl.List)
		o.GET("/:id", orderCtrl.Detail)
		o.POST("/:id/cancel", orderCtrl.Cancel)
	}

	t.GET("/ws", wsCtrl.Connect)
}
