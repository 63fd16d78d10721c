package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Respond writes err as {"error": message, ...details}. Server errors are
// logged with their cause and answered with the generic message only.
func Respond(c *gin.Context, log *slog.Logger, err error) {
	appErr := As(err)

	if appErr.HTTPStatus >= 500 && log != nil {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"code", appErr.Code,
			"error", appErr.Err,
		)
	}

	body := gin.H{"error": appErr.Message}
	for k, v := range appErr.Details {
		body[k] = v
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}
