package utils

import (
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/gin-gonic/gin"
)

const clientKey = "client"

func SetClient(c *gin.Context, cl *services.Client) {
	c.Set(clientKey, cl)
}

// CurrentClient is the container resolved by the client middleware, or nil.
func CurrentClient(c *gin.Context) *services.Client {
	if v, ok := c.Get(clientKey); ok {
		if cl, ok := v.(*services.Client); ok {
			return cl
		}
	}
	return nil
}

func CurrentClientID(c *gin.Context) string {
	if cl := CurrentClient(c); cl != nil {
		return cl.ID
	}
	return ""
}
