package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/logger"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// Respond writes data in the success envelope with status. A 204 is sent
// without a body.
func Respond(c *gin.Context, status int, data any) {
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	c.JSON(status, DataResponse{Data: data})
}

// RespondOK is Respond with 200.
func RespondOK(c *gin.Context, data any) {
	Respond(c, http.StatusOK, data)
}

// RespondWithError writes err as an ErrorResponse tagged with the request
// ID. Errors that are not AppErrors answer 500 without their message.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.JSON(appErr.HTTPStatus, appErr.ToResponse(logger.RequestIDFromContext(c.Request.Context())))
}
