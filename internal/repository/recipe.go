package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forkful/forkful/internal/model"
)

// Common errors for recipe repository operations.
var (
	ErrRecipeNotFound = errors.New("recipe not found")
)

// RecipeFilter defines filters for listing recipes.
// Id lists use membership semantics: a recipe matches when it carries at
// least one of the listed tags (respectively ingredients). Both filters
// compose with logical AND.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// ListRecipes returns the owner's recipes ordered by id descending,
// with tag and ingredient associations loaded.
func (r *Repository) ListRecipes(ctx context.Context, ownerID string, filter RecipeFilter) ([]*model.Recipe, error) {
	query := `
		SELECT id, user_id, title, time_minutes, price, link, image_path, created_at, updated_at
		FROM recipes
		WHERE user_id = $1
	`
	args := []any{ownerID}
	argIndex := 2

	if len(filter.TagIDs) > 0 {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = recipes.id AND rt.tag_id = ANY($%d))", argIndex)
		args = append(args, filter.TagIDs)
		argIndex++
	}

	if len(filter.IngredientIDs) > 0 {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = recipes.id AND ri.ingredient_id = ANY($%d))", argIndex)
		args = append(args, filter.IngredientIDs)
		argIndex++
	}

	query += " ORDER BY id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*model.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	if err := r.attachAssociations(ctx, recipes); err != nil {
		return nil, err
	}

	return recipes, nil
}

// GetRecipeByID retrieves one of the owner's recipes with associations loaded.
// A recipe owned by a different user is reported as not found.
func (r *Repository) GetRecipeByID(ctx context.Context, ownerID string, id int64) (*model.Recipe, error) {
	query := `
		SELECT id, user_id, title, time_minutes, price, link, image_path, created_at, updated_at
		FROM recipes
		WHERE id = $1 AND user_id = $2
	`

	recipe, err := scanRecipe(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	if err := r.attachAssociations(ctx, []*model.Recipe{recipe}); err != nil {
		return nil, err
	}

	return recipe, nil
}

// CreateRecipe inserts a recipe and its tag/ingredient links in one
// transaction. The caller must have resolved the id lists to the owner's
// own entities beforehand. Fills in the generated id and timestamps.
func (r *Repository) CreateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs, ingredientIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO recipes (user_id, title, time_minutes, price, link, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err = tx.QueryRow(ctx, query,
		recipe.UserID,
		recipe.Title,
		recipe.TimeMinutes,
		recipe.Price,
		recipe.Link,
		recipe.ImagePath,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	if err := insertRecipeLinks(ctx, tx, "recipe_tags", "tag_id", recipe.ID, tagIDs); err != nil {
		return err
	}
	if err := insertRecipeLinks(ctx, tx, "recipe_ingredients", "ingredient_id", recipe.ID, ingredientIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recipe create: %w", err)
	}

	return nil
}

// RecipeUpdate carries the fields to persist for a recipe update.
// SetTags/SetIngredients distinguish "replace the association with this
// list" (full update, or a partial update naming the field) from "leave
// the association untouched" (partial update omitting the field).
type RecipeUpdate struct {
	Title          string
	TimeMinutes    int
	Price          float64
	Link           string
	SetTags        bool
	TagIDs         []int64
	SetIngredients bool
	IngredientIDs  []int64
}

// UpdateRecipe persists a recipe update for the owner in one transaction.
func (r *Repository) UpdateRecipe(ctx context.Context, ownerID string, id int64, update RecipeUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		UPDATE recipes
		SET title = $3, time_minutes = $4, price = $5, link = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	result, err := tx.Exec(ctx, query, id, ownerID, update.Title, update.TimeMinutes, update.Price, update.Link)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}

	if update.SetTags {
		if err := replaceRecipeLinks(ctx, tx, "recipe_tags", "tag_id", id, update.TagIDs); err != nil {
			return err
		}
	}
	if update.SetIngredients {
		if err := replaceRecipeLinks(ctx, tx, "recipe_ingredients", "ingredient_id", id, update.IngredientIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}

	return nil
}

// SetRecipeImagePath records the stored image path for one of the owner's
// recipes and returns the previously stored path (empty if none).
func (r *Repository) SetRecipeImagePath(ctx context.Context, ownerID string, id int64, path string) (string, error) {
	query := `
		UPDATE recipes
		SET image_path = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING (
			SELECT image_path FROM recipes WHERE id = $1 AND user_id = $2
		)
	`

	// The subselect snapshots the old value before the update applies.
	var oldPath string
	err := r.pool.QueryRow(ctx, query, id, ownerID, path).Scan(&oldPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRecipeNotFound
		}
		return "", fmt.Errorf("failed to set recipe image path: %w", err)
	}

	return oldPath, nil
}

// insertRecipeLinks inserts link rows for a recipe using an array unnest.
func insertRecipeLinks(ctx context.Context, tx pgx.Tx, table, column string, recipeID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (recipe_id, %s)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, table, column)

	if _, err := tx.Exec(ctx, query, recipeID, ids); err != nil {
		return fmt.Errorf("failed to insert %s links: %w", table, err)
	}

	return nil
}

// replaceRecipeLinks swaps a recipe's link rows for the given id list.
func replaceRecipeLinks(ctx context.Context, tx pgx.Tx, table, column string, recipeID int64, ids []int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, table)
	if _, err := tx.Exec(ctx, query, recipeID); err != nil {
		return fmt.Errorf("failed to clear %s links: %w", table, err)
	}

	return insertRecipeLinks(ctx, tx, table, column, recipeID, ids)
}

// attachAssociations loads tags and ingredients for the given recipes.
func (r *Repository) attachAssociations(ctx context.Context, recipes []*model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Recipe, len(recipes))
	ids := make([]int64, len(recipes))
	for i, recipe := range recipes {
		recipe.Tags = []model.Tag{}
		recipe.Ingredients = []model.Ingredient{}
		byID[recipe.ID] = recipe
		ids[i] = recipe.ID
	}

	tagQuery := `
		SELECT rt.recipe_id, t.id, t.user_id, t.name, t.created_at
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.name DESC
	`

	rows, err := r.pool.Query(ctx, tagQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to load recipe tags: %w", err)
	}
	for rows.Next() {
		var recipeID int64
		var tag model.Tag
		if err := rows.Scan(&recipeID, &tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		if recipe, ok := byID[recipeID]; ok {
			recipe.Tags = append(recipe.Tags, tag)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating recipe tags: %w", err)
	}

	ingredientQuery := `
		SELECT ri.recipe_id, i.id, i.user_id, i.name, i.created_at
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY i.name DESC
	`

	rows, err = r.pool.Query(ctx, ingredientQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	for rows.Next() {
		var recipeID int64
		var ingredient model.Ingredient
		if err := rows.Scan(&recipeID, &ingredient.ID, &ingredient.UserID, &ingredient.Name, &ingredient.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		if recipe, ok := byID[recipeID]; ok {
			recipe.Ingredients = append(recipe.Ingredients, ingredient)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating recipe ingredients: %w", err)
	}

	return nil
}

// scanRecipe scans a row into a Recipe model.
func scanRecipe(row pgx.Row) (*model.Recipe, error) {
	var recipe model.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.TimeMinutes,
		&recipe.Price,
		&recipe.Link,
		&recipe.ImagePath,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}
