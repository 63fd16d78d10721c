package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

type ReviewAPI interface {
	Create(ctx context.Context, viewer services.Viewer, in services.CreateReviewInput) (*models.Review, error)
	ForProperty(ctx context.Context, propertyID uint, sortBy string, page, limit int) (*services.PropertyReviews, error)
	ForUser(ctx context.Context, viewer services.Viewer, userID uint, kind string) ([]models.Review, error)
	Respond(ctx context.Context, viewer services.Viewer, id uint, text string) (*models.Review, error)
	Analytics(ctx context.Context, viewer services.Viewer, hostID uint) (*services.ReviewAnalytics, error)
	Report(ctx context.Context, viewer services.Viewer, id uint, reason string) error
	Moderate(ctx context.Context, viewer services.Viewer, id uint, visible bool) error
	Eligibility(ctx context.Context, viewer services.Viewer, bookingID string) (*services.ReviewEligibility, error)
}

func CreateReview(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.CreateReviewInput
		if !bind(c, log, &input) {
			return
		}

		review, err := reviews.Create(c.Request.Context(), viewerFrom(c), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Review submitted successfully", "review": review})
	}
}

type propertyReviewsQuery struct {
	SortBy string `form:"sortBy" binding:"omitempty,oneof=newest oldest highest lowest"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func PropertyReviews(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "propertyId", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}
		var q propertyReviewsQuery
		if !bindQuery(c, log, &q) {
			return
		}

		res, err := reviews.ForProperty(c.Request.Context(), id, q.SortBy, q.Page, q.Limit)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// UserReviews lists the reviews a user wrote (type=given, the default) or
// received as a host (type=received).
func UserReviews(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "userId", "User")
		if err != nil {
			fail(c, log, err)
			return
		}

		list, err := reviews.ForUser(c.Request.Context(), viewerFrom(c), id, c.DefaultQuery("type", "given"))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reviews": list})
	}
}

type responseInput struct {
	Response string `json:"response" binding:"required,max=1000"`
}

func RespondToReview(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Review")
		if err != nil {
			fail(c, log, err)
			return
		}
		var input responseInput
		if !bind(c, log, &input) {
			return
		}

		review, err := reviews.Respond(c.Request.Context(), viewerFrom(c), id, input.Response)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Response added successfully", "review": review})
	}
}

func ReviewAnalytics(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "hostId", "Host")
		if err != nil {
			fail(c, log, err)
			return
		}

		analytics, err := reviews.Analytics(c.Request.Context(), viewerFrom(c), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, analytics)
	}
}

type reportInput struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

func ReportReview(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Review")
		if err != nil {
			fail(c, log, err)
			return
		}
		var input reportInput
		if !bind(c, log, &input) {
			return
		}

		if err := reviews.Report(c.Request.Context(), viewerFrom(c), id, input.Reason); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Review reported successfully"})
	}
}

type moderateInput struct {
	IsVisible *bool `json:"isVisible" binding:"required"`
}

func ModerateReview(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Review")
		if err != nil {
			fail(c, log, err)
			return
		}
		var input moderateInput
		if !bind(c, log, &input) {
			return
		}

		if err := reviews.Moderate(c.Request.Context(), viewerFrom(c), id, *input.IsVisible); err != nil {
			fail(c, log, err)
			return
		}
		message := "Review hidden"
		if *input.IsVisible {
			message = "Review restored"
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

func ReviewEligibility(reviews ReviewAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := reviews.Eligibility(c.Request.Context(), viewerFrom(c), c.Param("bookingId"))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
