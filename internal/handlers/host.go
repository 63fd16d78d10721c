package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

type DashboardAPI interface {
	HostStats(ctx context.Context, viewer services.Viewer) (*services.HostStats, error)
	AdminStats(ctx context.Context, viewer services.Viewer) (*services.AdminStats, error)
	Hosts(ctx context.Context, viewer services.Viewer) ([]repository.HostSummary, error)
}

func HostStats(dashboard DashboardAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := dashboard.HostStats(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}

// HostBookings lists bookings on the caller's own properties, whatever
// their role.
func HostBookings(bookings BookingAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q bookingListQuery
		if !bindQuery(c, log, &q) {
			return
		}
		viewer := viewerFrom(c)
		f := q.filter()
		f.HostID = &viewer.UserID

		list, err := bookings.List(c.Request.Context(), viewer, f)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
