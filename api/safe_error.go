package api

import (
	"errors"
	"log"

	"clarity/config"
	"clarity/middleware"
	"clarity/models"
	"clarity/store"

	"github.com/gin-gonic/gin"
)

// SafeErrorMessage hides binding error detail from clients in release mode
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// respondError maps a handler or store failure onto a response. Unknown
// errors are logged with the request id and answered with a generic 500.
func respondError(c *gin.Context, action string, err error, notFound string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(c, verr)
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, notFound)
	case errors.Is(err, store.ErrUnknownUser):
		Unauthorized(c, "account no longer exists")
	default:
		log.Printf("[%s] %s: %v", middleware.GetRequestID(c), action, err)
		InternalError(c, "internal server error")
	}
}
