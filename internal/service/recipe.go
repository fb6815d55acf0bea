package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"slices"
	"strings"
	"time"

	// Registered image formats for upload validation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/forkful/forkful/internal/metrics"
	"github.com/forkful/forkful/internal/model"
	"github.com/forkful/forkful/internal/repository"
	"github.com/forkful/forkful/internal/storage"
)

// Recipe service errors.
var (
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrEmptyTitle          = errors.New("title must not be empty")
	ErrNegativeTime        = errors.New("time_minutes must not be negative")
	ErrNegativePrice       = errors.New("price must not be negative")
	ErrUnknownTagID        = errors.New("unknown tag id")
	ErrUnknownIngredientID = errors.New("unknown ingredient id")
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidImage        = errors.New("payload is not a decodable image")
)

// RecipeService handles owner-scoped recipe CRUD, filtering and images.
type RecipeService struct {
	repo    *repository.Repository
	images  *storage.ImageStore
	metrics metrics.Recorder
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(repo *repository.Repository, images *storage.ImageStore, recorder metrics.Recorder) *RecipeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RecipeService{repo: repo, images: images, metrics: recorder}
}

// RecipeFilters narrows a recipe listing. Id lists use membership
// semantics (at least one match); both filters compose with AND.
type RecipeFilters struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// ListRecipes returns the owner's recipes, newest id first.
func (s *RecipeService) ListRecipes(ctx context.Context, ownerID string, filters RecipeFilters) ([]*model.Recipe, error) {
	recipes, err := s.repo.ListRecipes(ctx, ownerID, repository.RecipeFilter{
		TagIDs:        filters.TagIDs,
		IngredientIDs: filters.IngredientIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe returns one of the owner's recipes. A recipe belonging to a
// different user is reported as not found.
func (s *RecipeService) GetRecipe(ctx context.Context, ownerID string, id int64) (*model.Recipe, error) {
	recipe, err := s.repo.GetRecipeByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return recipe, nil
}

// CreateRecipeInput defines input for creating a recipe.
type CreateRecipeInput struct {
	Title         string
	TimeMinutes   int
	Price         float64
	Link          string
	TagIDs        []int64
	IngredientIDs []int64
}

// CreateRecipe creates a recipe owned by the user. Referenced tag and
// ingredient ids must resolve to entities the user owns; a foreign or
// unknown id is rejected, never silently dropped.
func (s *RecipeService) CreateRecipe(ctx context.Context, ownerID string, input CreateRecipeInput) (*model.Recipe, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if input.TimeMinutes < 0 {
		return nil, ErrNegativeTime
	}
	if input.Price < 0 {
		return nil, ErrNegativePrice
	}

	tagIDs, err := s.resolveTagIDs(ctx, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := s.resolveIngredientIDs(ctx, ownerID, input.IngredientIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recipe := &model.Recipe{
		UserID:      ownerID,
		Title:       title,
		TimeMinutes: input.TimeMinutes,
		Price:       input.Price,
		Link:        strings.TrimSpace(input.Link),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateRecipe(ctx, recipe, tagIDs, ingredientIDs); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.metrics.IncRecipeCreated()

	return s.GetRecipe(ctx, ownerID, recipe.ID)
}

// UpdateRecipeInput defines input for updating a recipe. Nil fields were
// absent from the request body.
type UpdateRecipeInput struct {
	Title         *string
	TimeMinutes   *int
	Price         *float64
	Link          *string
	TagIDs        *[]int64
	IngredientIDs *[]int64
}

// UpdateRecipe applies an update to one of the owner's recipes.
//
// With partial=true, absent fields keep their current values and absent
// association lists are left untouched. With partial=false the update is
// a full replacement: title, time_minutes and price are required, an
// absent link resets to empty and absent association lists clear the
// associations. Ownership is checked before field validation, so a
// foreign recipe reports not found even with an invalid body.
func (s *RecipeService) UpdateRecipe(ctx context.Context, ownerID string, id int64, input UpdateRecipeInput, partial bool) (*model.Recipe, error) {
	existing, err := s.GetRecipe(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	update := repository.RecipeUpdate{}

	if partial {
		update.Title = existing.Title
		update.TimeMinutes = existing.TimeMinutes
		update.Price = existing.Price
		update.Link = existing.Link
	} else {
		if input.Title == nil || input.TimeMinutes == nil || input.Price == nil {
			return nil, ErrMissingFields
		}
		update.SetTags = true
		update.SetIngredients = true
	}

	if input.Title != nil {
		update.Title = strings.TrimSpace(*input.Title)
	}
	if input.TimeMinutes != nil {
		update.TimeMinutes = *input.TimeMinutes
	}
	if input.Price != nil {
		update.Price = *input.Price
	}
	if input.Link != nil {
		update.Link = strings.TrimSpace(*input.Link)
	}

	if update.Title == "" {
		return nil, ErrEmptyTitle
	}
	if update.TimeMinutes < 0 {
		return nil, ErrNegativeTime
	}
	if update.Price < 0 {
		return nil, ErrNegativePrice
	}

	if input.TagIDs != nil {
		update.SetTags = true
		update.TagIDs, err = s.resolveTagIDs(ctx, ownerID, *input.TagIDs)
		if err != nil {
			return nil, err
		}
	}
	if input.IngredientIDs != nil {
		update.SetIngredients = true
		update.IngredientIDs, err = s.resolveIngredientIDs(ctx, ownerID, *input.IngredientIDs)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateRecipe(ctx, ownerID, id, update); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	s.metrics.IncRecipeUpdated()

	return s.GetRecipe(ctx, ownerID, id)
}

// SetImage validates and stores an uploaded image for one of the owner's
// recipes, then records its path. A previously stored image is removed
// best effort once the new path is persisted.
func (s *RecipeService) SetImage(ctx context.Context, ownerID string, id int64, filename string, data []byte) (*model.Recipe, error) {
	// Ownership check first: a foreign recipe is a 404 even with a bad payload.
	if _, err := s.GetRecipe(ctx, ownerID, id); err != nil {
		return nil, err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = "." + format
	}

	path, err := s.images.SaveRecipeImage(ext, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	oldPath, err := s.repo.SetRecipeImagePath(ctx, ownerID, id, path)
	if err != nil {
		// The DB write failed; don't leave the fresh file behind.
		_ = s.images.Remove(path)
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to record image path: %w", err)
	}

	if oldPath != "" && oldPath != path {
		_ = s.images.Remove(oldPath)
	}

	s.metrics.IncImageUploaded()

	return s.GetRecipe(ctx, ownerID, id)
}

// resolveTagIDs scopes the requested tag ids to the owner's tags.
func (s *RecipeService) resolveTagIDs(ctx context.Context, ownerID string, ids []int64) ([]int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.repo.ResolveOwnedTagIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tag ids: %w", err)
	}
	if len(found) != len(ids) {
		return nil, ErrUnknownTagID
	}
	return found, nil
}

// resolveIngredientIDs scopes the requested ingredient ids to the owner's.
func (s *RecipeService) resolveIngredientIDs(ctx context.Context, ownerID string, ids []int64) ([]int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.repo.ResolveOwnedIngredientIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ingredient ids: %w", err)
	}
	if len(found) != len(ids) {
		return nil, ErrUnknownIngredientID
	}
	return found, nil
}

// uniqueIDs sorts and deduplicates an id list.
func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
