package dto

import (
	"strconv"
	"strings"

	"github.com/forkful/forkful/internal/model"
)

// CreateRecipeRequest represents the request body for creating a recipe.
// Tags and ingredients reference catalog entries by id.
type CreateRecipeRequest struct {
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Link        string  `json:"link,omitempty"`
	Tags        []int64 `json:"tags,omitempty"`
	Ingredients []int64 `json:"ingredients,omitempty"`
}

// UpdateRecipeRequest represents the request body for updating a recipe.
// Nil fields were absent from the request body; the handler decides
// whether absence means "keep" (PATCH) or "reset" (PUT).
type UpdateRecipeRequest struct {
	Title       *string  `json:"title,omitempty"`
	TimeMinutes *int     `json:"time_minutes,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Link        *string  `json:"link,omitempty"`
	Tags        *[]int64 `json:"tags,omitempty"`
	Ingredients *[]int64 `json:"ingredients,omitempty"`
}

// RecipeResponse represents a recipe in API responses. Tags and
// ingredients are embedded as objects, not bare ids.
type RecipeResponse struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	TimeMinutes int                   `json:"time_minutes"`
	Price       float64               `json:"price"`
	Link        string                `json:"link,omitempty"`
	Tags        []CatalogItemResponse `json:"tags"`
	Ingredients []CatalogItemResponse `json:"ingredients"`
	Image       *string               `json:"image"`
}

// RecipeImageResponse is the response for an image upload.
type RecipeImageResponse struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// ToRecipeResponse converts a Recipe model to RecipeResponse DTO.
// baseURL prefixes the stored image path to form a fetchable URL.
func ToRecipeResponse(recipe *model.Recipe, baseURL string) *RecipeResponse {
	resp := &RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        ToTagListResponse(recipe.Tags),
		Ingredients: ToIngredientListResponse(recipe.Ingredients),
	}
	if recipe.HasImage() {
		url := ImageURL(baseURL, recipe.ImagePath)
		resp.Image = &url
	}
	return resp
}

// ToRecipeListResponse converts a slice of Recipe models.
func ToRecipeListResponse(recipes []*model.Recipe, baseURL string) []RecipeResponse {
	out := make([]RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		out[i] = *ToRecipeResponse(recipe, baseURL)
	}
	return out
}

// ImageURL joins the service base URL with a stored image path.
func ImageURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// ParseIDList parses a comma-separated list of integer ids, as used by
// the `tags` and `ingredients` recipe filters. Blank segments are
// skipped; a non-numeric segment fails the whole list.
func ParseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseBool reports whether a query parameter holds a truthy value.
// Accepted: "1", "true", "True".
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true
	default:
		return false
	}
}
