package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

func GetProfile(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Profile(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// UpdateProfile changes only the fields present in the body.
func UpdateProfile(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.ProfileUpdate
		if !bind(c, log, &input) {
			return
		}

		user, err := auth.UpdateProfile(c.Request.Context(), viewerFrom(c), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Profile updated successfully",
			"user":    user,
		})
	}
}
