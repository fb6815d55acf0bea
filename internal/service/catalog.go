package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forkful/forkful/internal/metrics"
	"github.com/forkful/forkful/internal/model"
	"github.com/forkful/forkful/internal/repository"
)

// Catalog service errors.
var (
	ErrEmptyName = errors.New("name must not be empty")
)

// CatalogService handles the owner-scoped tag and ingredient catalogs.
// The two entity kinds share one contract; only the storage tables differ.
type CatalogService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo *repository.Repository, recorder metrics.Recorder) *CatalogService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CatalogService{repo: repo, metrics: recorder}
}

// ListTags returns the owner's tags sorted by name descending.
// With assignedOnly, only tags attached to at least one of the owner's
// recipes are returned, each exactly once.
func (s *CatalogService) ListTags(ctx context.Context, ownerID string, assignedOnly bool) ([]model.Tag, error) {
	tags, err := s.repo.ListTags(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// CreateTag creates a tag owned by the user.
func (s *CatalogService) CreateTag(ctx context.Context, ownerID, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	tag := &model.Tag{
		UserID:    ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.metrics.IncTagCreated()

	return tag, nil
}

// ListIngredients returns the owner's ingredients sorted by name descending.
// With assignedOnly, only ingredients used by at least one of the owner's
// recipes are returned, each exactly once.
func (s *CatalogService) ListIngredients(ctx context.Context, ownerID string, assignedOnly bool) ([]model.Ingredient, error) {
	ingredients, err := s.repo.ListIngredients(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// CreateIngredient creates an ingredient owned by the user.
func (s *CatalogService) CreateIngredient(ctx context.Context, ownerID, name string) (*model.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	ingredient := &model.Ingredient{
		UserID:    ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateIngredient(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}

	s.metrics.IncIngredientCreated()

	return ingredient, nil
}
