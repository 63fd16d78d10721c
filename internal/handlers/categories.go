package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

type CategoryAPI interface {
	List(ctx context.Context) ([]models.Category, error)
	Seed(ctx context.Context, viewer services.Viewer) ([]models.Category, error)
}

func ListCategories(categories CategoryAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := categories.List(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": list})
	}
}

func SeedCategories(categories CategoryAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := categories.Seed(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":    "Categories seeded successfully",
			"categories": list,
		})
	}
}
