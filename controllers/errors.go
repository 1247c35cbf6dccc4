package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/pkg/resp"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/gin-gonic/gin"
)

// writeError maps service and backend errors onto the response envelope.
func writeError(c *gin.Context, err error) {
	var (
		ve *services.ValidationError
		pe *services.ProviderError
		ae *apiclient.Error
	)
	switch {
	case errors.As(err, &ve):
		resp.Invalid(c, ve.Error(), ve.Fields)
	case errors.Is(err, services.ErrNotAuthenticated):
		resp.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrOrderNotFound):
		resp.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrNotInCart),
		errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, services.ErrProductUnavailable):
		resp.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWrongStep),
		errors.Is(err, services.ErrSubmissionInFlight),
		errors.Is(err, services.ErrCheckoutClosed),
		errors.Is(err, services.ErrNotCancellable):
		resp.Conflict(c, err.Error())
	case errors.As(err, &pe):
		resp.BadRequest(c, pe.Error())
	case errors.As(err, &ae):
		status := ae.Status
		if status == 0 || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		resp.Fail(c, status, ae.Message)
	default:
		slog.Error("unhandled error", "path", c.FullPath(), "error", err)
		resp.ServerError(c, errors.New("something went wrong, please try again"))
	}
}
