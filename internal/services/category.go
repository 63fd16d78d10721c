package services

import (
	"context"

	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
)

var defaultCategories = []models.Category{
	{Name: "Apartment", Description: "Self-contained apartments and flats", Icon: "building"},
	{Name: "Villa", Description: "Private villas with gardens or pools", Icon: "home"},
	{Name: "Cottage", Description: "Cosy cottages in quiet settings", Icon: "trees"},
	{Name: "Beach House", Description: "Homes on or near the beach", Icon: "waves"},
	{Name: "Cabin", Description: "Cabins in the mountains or forest", Icon: "mountain"},
	{Name: "Studio", Description: "Compact studios for short stays", Icon: "bed"},
	{Name: "Farm Stay", Description: "Rural stays on working farms", Icon: "sprout"},
}

type CategoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch categories", err)
	}
	return categories, nil
}

// Seed inserts the default categories, keeping any that already exist.
func (s *CategoryService) Seed(ctx context.Context, viewer Viewer) ([]models.Category, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	seed := append([]models.Category(nil), defaultCategories...)
	if err := s.categories.Upsert(ctx, seed); err != nil {
		return nil, apperrors.Internal("Failed to seed categories", err)
	}
	return s.List(ctx)
}
