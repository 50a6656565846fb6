package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clarity/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindingError answers a failed ShouldBind* with a 400 naming the field
func bindingError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		ValidationFailed(c, fieldValidationError(fieldErrs[0]))
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		ValidationFailed(c, &models.ValidationError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s has the wrong type", typeErr.Field),
		})
		return
	}

	BadRequest(c, SafeErrorMessage(err, "invalid request body"))
}

func fieldValidationError(fe validator.FieldError) *models.ValidationError {
	field := jsonFieldName(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "email":
		msg = field + " must be a valid email address"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		msg = field + " is invalid"
	}
	return &models.ValidationError{Field: field, Message: msg}
}

func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// storeContext detaches store calls from client disconnects. Values such as
// the verified user id are kept.
func storeContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
