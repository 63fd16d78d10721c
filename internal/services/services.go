// Package services holds the marketplace's business rules. Handlers
// translate HTTP into calls on these types; persistence and delivery
// channels are injected as interfaces.
package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/rosettahomes/rosetta-backend/internal/models"
)

// Viewer is the caller of an operation. The zero value is an anonymous guest.
type Viewer struct {
	UserID uint
	Role   models.Role
}

func (v Viewer) Authenticated() bool {
	return v.UserID != 0
}

func (v Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

// Owns reports whether the viewer may manage a resource belonging to ownerID.
func (v Viewer) Owns(ownerID uint) bool {
	return v.Authenticated() && (v.UserID == ownerID || v.IsAdmin())
}

type Page struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// NormalizePage clamps page to >= 1 and limit to (0, maxPageSize].
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func newPage(page, limit int, total int64) Page {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Page{Page: page, Limit: limit, Total: total, Pages: pages}
}

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
