package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}
func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, msg)
}
func Unauthorized(c *gin.Context, msg string) {
	Fail(c, http.StatusUnauthorized, msg)
}
func Forbidden(c *gin.Context, msg string) {
	Fail(c, http.StatusForbidden, msg)
}
func NotFound(c *gin.Context, msg string) {
	Fail(c, http.StatusNotFound, msg)
}
func Conflict(c *gin.Context, msg string) {
	Fail(c, http.StatusConflict, msg)
}

// Invalid reports field-level validation messages next to the summary.
func Invalid(c *gin.Context, msg string, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": msg, "fields": fields})
}
func ServerError(c *gin.Context, err error) {
	Fail(c, http.StatusInternalServerError, err.Error())
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"ok": false, "error": msg})
}
