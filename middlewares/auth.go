package middlewares

import (
	"net/http"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"
	"github.com/gin-gonic/gin"
)

// RequireSession gates a route on the client's session and (if given) its role.
// A still-loading session answers 503 so the UI keeps its placeholder.
func RequireSession(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := utils.CurrentClient(c)
		if cl == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "client not resolved"})
			return
		}

		d := services.Guard(cl.Session.Snapshot(), roles, c.Request.URL.RequestURI())
		switch d.Kind {
		case services.GuardLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "session is loading", "loading": true})
			return
		case services.GuardRedirect:
			if d.To == services.RouteSignIn {
				cl.Session.SaveRedirect(c.Request.Context(), d.From)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "sign in required", "redirect": d.To})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden", "redirect": d.To})
			return
		}
		c.Next()
	}
}
