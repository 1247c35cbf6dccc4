package middlewares

import (
	"net/http"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ClientCookie = "client_id"

// ClientMiddleware resolves the tab's client id cookie (issuing one when
// missing or malformed) and attaches the client container to the request.
func ClientMiddleware(reg *services.Registry, secure bool, maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(ClientCookie)
		if _, perr := uuid.Parse(id); err != nil || perr != nil {
			id = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(ClientCookie, id, int(maxAge.Seconds()), "/", "", secure, true)

		utils.SetClient(c, reg.Get(c.Request.Context(), id))
		c.Next()
	}
}
