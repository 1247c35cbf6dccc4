package controllers

import (
	"strconv"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/pkg/resp"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"

	"github.com/gin-gonic/gin"
)

type MenuController struct{}

func NewMenuController() *MenuController { return &MenuController{} }

// GET /menu/categories
func (m *MenuController) Categories(c *gin.Context) {
	cats, err := utils.CurrentClient(c).Catalog.Categories(c.Request.Context())
	if err != nil { writeError(c, err); return }
	resp.OK(c, cats)
}

// GET /menu/products?categoryId=&available=
// available defaults to true: the menu shows what can be ordered today.
func (m *MenuController) Products(c *gin.Context) {
	f := apiclient.ProductFilter{CategoryID: c.Query("categoryId"), AvailableOnly: true}
	if v := c.Query("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			resp.BadRequest(c, "available must be true or false"); return
		}
		f.AvailableOnly = b
	}
	products, err := utils.CurrentClient(c).Catalog.Products(c.Request.Context(), f)
	if err != nil { writeError(c, err); return }
	resp.OK(c, products)
}
