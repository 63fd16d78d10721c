// Package handlers adapts HTTP requests to the marketplace services. Each
// constructor closes over its dependencies and returns a gin.HandlerFunc.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/middleware"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

func viewerFrom(c *gin.Context) services.Viewer {
	id, role := middleware.Identity(c)
	return services.Viewer{UserID: id, Role: role}
}

func fail(c *gin.Context, log *slog.Logger, err error) {
	apperrors.Respond(c, log, err)
}

// bind decodes the JSON body into dst and reports the first binding error
// as a 400.
func bind(c *gin.Context, log *slog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, log, apperrors.Validation(bindingMessage(err)))
		return false
	}
	return true
}

// bindOptional is bind for endpoints whose service reports missing fields
// itself: an empty body decodes to the zero value.
func bindOptional(c *gin.Context, log *slog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		fail(c, log, apperrors.Validation(bindingMessage(err)))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return "Invalid email address"
		case "rating":
			return field + " must be between 1 and 5"
		case "booking_status":
			return "Invalid booking status"
		case "approval_status":
			return "Invalid approval status"
		case "min", "gt":
			return field + " is too small"
		case "max":
			return field + " is too large"
		}
		return "Invalid value for " + field
	}
	return "Invalid request body"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func idParam(c *gin.Context, name, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(resource)
	}
	return uint(id), nil
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

func queryFloat(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryUint(c *gin.Context, name string) *uint {
	n, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	id := uint(n)
	return &id
}

func bindQuery(c *gin.Context, log *slog.Logger, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		fail(c, log, apperrors.Validation(bindingMessage(err)))
		return false
	}
	return true
}
