package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

type PreferenceAPI interface {
	Get(ctx context.Context, viewer services.Viewer) (*models.NotificationPreference, error)
	Update(ctx context.Context, viewer services.Viewer, in services.PreferenceUpdate) (*models.NotificationPreference, error)
	RegisterToken(ctx context.Context, viewer services.Viewer, token string) error
	RemoveToken(ctx context.Context, viewer services.Viewer) error
}

type NotifierAPI interface {
	Status() services.ChannelStatus
	SendTest(ctx context.Context, email, phone string) services.DispatchResult
}

type registerTokenInput struct {
	FCMToken string `json:"fcmToken" binding:"required"`
}

func RegisterFCMToken(prefs PreferenceAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input registerTokenInput
		if !bind(c, log, &input) {
			return
		}

		if err := prefs.RegisterToken(c.Request.Context(), viewerFrom(c), input.FCMToken); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "FCM token registered successfully"})
	}
}

func RemoveFCMToken(prefs PreferenceAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := prefs.RemoveToken(c.Request.Context(), viewerFrom(c)); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
	}
}

func GetNotificationPreferences(prefs PreferenceAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := prefs.Get(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdateNotificationPreferences changes only the flags present in the body.
func UpdateNotificationPreferences(prefs PreferenceAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.PreferenceUpdate
		if !bind(c, log, &input) {
			return
		}

		p, err := prefs.Update(c.Request.Context(), viewerFrom(c), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":     "Preferences updated successfully",
			"preferences": p,
		})
	}
}

func NotificationStatus(notifier NotifierAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"channels": notifier.Status()})
	}
}

type testNotificationInput struct {
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

func SendTestNotification(notifier NotifierAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input testNotificationInput
		if !bind(c, log, &input) {
			return
		}
		if input.Email == "" && input.Phone == "" {
			fail(c, log, apperrors.Validation("Provide an email or phone to test"))
			return
		}

		res := notifier.SendTest(c.Request.Context(), input.Email, input.Phone)
		c.JSON(http.StatusOK, gin.H{
			"message": "Test notifications dispatched",
			"results": res,
		})
	}
}
