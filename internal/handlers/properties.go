package handlers

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

type PropertyAPI interface {
	List(ctx context.Context, in services.PropertySearch) (*services.PropertyList, error)
	Get(ctx context.Context, viewer services.Viewer, id uint) (*services.PropertyView, error)
	Create(ctx context.Context, viewer services.Viewer, in services.PropertyInput) (*models.Property, error)
	Update(ctx context.Context, viewer services.Viewer, id uint, in services.PropertyUpdate) (*models.Property, error)
	Deactivate(ctx context.Context, viewer services.Viewer, id uint) error
	Toggle(ctx context.Context, viewer services.Viewer, id uint) (*models.Property, error)
	Remove(ctx context.Context, viewer services.Viewer, id uint) (*services.RemovalResult, error)
	ForHost(ctx context.Context, viewer services.Viewer) ([]services.PropertyView, error)
	AddImages(ctx context.Context, viewer services.Viewer, id uint, files []*multipart.FileHeader) (*models.Property, error)
	RemoveImage(ctx context.Context, viewer services.Viewer, id uint, url string) (*models.Property, error)
	Approve(ctx context.Context, viewer services.Viewer, id uint) (*models.Property, error)
	Reject(ctx context.Context, viewer services.Viewer, id uint, reason string) (*models.Property, error)
	AdminList(ctx context.Context, viewer services.Viewer, f services.AdminPropertyFilter) (*services.PropertyList, error)
}

func searchFrom(c *gin.Context) services.PropertySearch {
	guests := queryInt(c, "guests")
	if guests == 0 {
		guests = queryInt(c, "maxGuests")
	}
	lat := queryFloat(c, "lat")
	if lat == nil {
		lat = queryFloat(c, "latitude")
	}
	lng := queryFloat(c, "lng")
	if lng == nil {
		lng = queryFloat(c, "longitude")
	}
	radius, _ := strconv.ParseFloat(c.Query("radiusKm"), 64)

	return services.PropertySearch{
		City:       c.Query("city"),
		Country:    c.Query("country"),
		Search:     c.Query("search"),
		MinPrice:   queryFloat(c, "minPrice"),
		MaxPrice:   queryFloat(c, "maxPrice"),
		Guests:     guests,
		Category:   c.Query("category"),
		CategoryID: queryUint(c, "categoryId"),
		Latitude:   lat,
		Longitude:  lng,
		RadiusKm:   radius,
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	}
}

// ListProperties is the public catalogue: approved, active listings only.
func ListProperties(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := properties.List(c.Request.Context(), searchFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		property, err := properties.Get(c.Request.Context(), viewerFrom(c), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"property": property})
	}
}

func CreateProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.PropertyInput
		if !bind(c, log, &input) {
			return
		}

		property, err := properties.Create(c.Request.Context(), viewerFrom(c), input)
		if err != nil {
			fail(c, log, err)
			return
		}

		message := "Property submitted for approval"
		if property.ApprovalStatus == models.ApprovalApproved {
			message = "Property created successfully"
		}
		c.JSON(http.StatusCreated, gin.H{"message": message, "property": property})
	}
}

func UpdateProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}
		var input services.PropertyUpdate
		if !bind(c, log, &input) {
			return
		}

		property, err := properties.Update(c.Request.Context(), viewerFrom(c), id, input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Property updated successfully", "property": property})
	}
}

// DeactivateProperty is the owner-facing delete: the listing is hidden and
// its booking history kept.
func DeactivateProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		if err := properties.Deactivate(c.Request.Context(), viewerFrom(c), id); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
	}
}

// RemoveProperty hard deletes a listing without booking history.
func RemoveProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		res, err := properties.Remove(c.Request.Context(), viewerFrom(c), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		message := "Property deleted successfully"
		if !res.Deleted {
			message = "Property has booking history and was deactivated"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "deleted": res.Deleted})
	}
}

func ToggleProperty(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		property, err := properties.Toggle(c.Request.Context(), viewerFrom(c), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		message := "Property deactivated"
		if property.IsActive {
			message = "Property activated"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "property": property})
	}
}

func MyProperties(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := properties.ForHost(c.Request.Context(), viewerFrom(c))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"properties": list})
	}
}

func UploadPropertyImages(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			fail(c, log, apperrors.Validation("Expected a multipart form with images"))
			return
		}
		defer form.RemoveAll()
		files := form.File["images"]
		if len(files) == 0 {
			fail(c, log, apperrors.Validation("No images uploaded"))
			return
		}

		property, err := properties.AddImages(c.Request.Context(), viewerFrom(c), id, files)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  "Images uploaded successfully",
			"images":   property.Images,
			"property": property,
		})
	}
}

type removeImageInput struct {
	URL string `json:"url" binding:"required,url"`
}

func DeletePropertyImage(properties PropertyAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}
		var input removeImageInput
		if !bind(c, log, &input) {
			return
		}

		property, err := properties.RemoveImage(c.Request.Context(), viewerFrom(c), id, input.URL)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Image removed", "images": property.Images})
	}
}

func PropertyAvailability(bookings BookingAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		available, quote, err := bookings.CheckAvailability(c.Request.Context(), id, c.Query("checkIn"), c.Query("checkOut"))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": available, "quote": quote})
	}
}
