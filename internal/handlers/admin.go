package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

func AdminStats(dashboard DashboardAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := dashboard.AdminStats(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}

func ListHosts(dashboard DashboardAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		hosts, err := dashboard.Hosts(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"hosts": hosts})
	}
}

type adminPropertyQuery struct {
	Status string `form:"status" binding:"omitempty,approval_status"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// AdminProperties lists listings for moderation. A non-empty status pins
// the filter, as on the pending queue.
func AdminProperties(properties PropertyAPI, status models.ApprovalStatus, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q adminPropertyQuery
		if !bindQuery(c, log, &q) {
			return
		}
		f := services.AdminPropertyFilter{
			Status: models.ApprovalStatus(q.Status),
			Search: q.Search,
			Page:   q.Page,
			Limit:  q.Limit,
		}
		if status != "" {
			f.Status = status
		}

		list, err := properties.AdminList(c.Request.Context(), viewerFrom(c), f)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func ApproveProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		property, err := properties.Approve(c.Request.Context(), viewerFrom(c), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Property approved successfully", "property": property})
	}
}

type rejectInput struct {
	Reason string `json:"reason"`
}

func RejectProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}
		var input rejectInput
		if err := c.ShouldBindJSON(&input); err != nil {
			fail(c, log, apperrors.Validation("Rejection reason is required"))
			return
		}

		property, err := properties.Reject(c.Request.Context(), viewerFrom(c), id, input.Reason)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Property rejected", "property": property})
	}
}
