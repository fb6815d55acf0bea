package dto

import "github.com/forkful/forkful/internal/model"

// CreateCatalogItemRequest represents the request body for creating a tag
// or an ingredient. Both catalogs share the same shape.
type CreateCatalogItemRequest struct {
	Name string `json:"name"`
}

// CatalogItemResponse represents a tag or ingredient in API responses.
type CatalogItemResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ToTagResponse converts a Tag model to CatalogItemResponse.
func ToTagResponse(tag *model.Tag) *CatalogItemResponse {
	return &CatalogItemResponse{ID: tag.ID, Name: tag.Name}
}

// ToTagListResponse converts a slice of Tag models.
func ToTagListResponse(tags []model.Tag) []CatalogItemResponse {
	out := make([]CatalogItemResponse, len(tags))
	for i := range tags {
		out[i] = CatalogItemResponse{ID: tags[i].ID, Name: tags[i].Name}
	}
	return out
}

// ToIngredientResponse converts an Ingredient model to CatalogItemResponse.
func ToIngredientResponse(ing *model.Ingredient) *CatalogItemResponse {
	return &CatalogItemResponse{ID: ing.ID, Name: ing.Name}
}

// ToIngredientListResponse converts a slice of Ingredient models.
func ToIngredientListResponse(ingredients []model.Ingredient) []CatalogItemResponse {
	out := make([]CatalogItemResponse, len(ingredients))
	for i := range ingredients {
		out[i] = CatalogItemResponse{ID: ingredients[i].ID, Name: ingredients[i].Name}
	}
	return out
}
