package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/forkful/forkful/internal/model"
)

// catalogKind selects which catalog entity a shared query operates on.
// Tags and ingredients share one schema shape and one set of queries;
// only the table names differ, and those come from this fixed enum,
// never from request input.
type catalogKind int

const (
	kindTag catalogKind = iota
	kindIngredient
)

func (k catalogKind) table() string {
	if k == kindTag {
		return "tags"
	}
	return "ingredients"
}

func (k catalogKind) linkTable() string {
	if k == kindTag {
		return "recipe_tags"
	}
	return "recipe_ingredients"
}

func (k catalogKind) linkColumn() string {
	if k == kindTag {
		return "tag_id"
	}
	return "ingredient_id"
}

// catalogRow is the shared storage shape of tags and ingredients.
type catalogRow struct {
	ID        int64
	UserID    string
	Name      string
	CreatedAt time.Time
}

// listCatalog returns the owner's catalog items ordered by name descending.
// With assignedOnly, the result is restricted to items referenced by at
// least one of the owner's recipes, deduplicated.
func (r *Repository) listCatalog(ctx context.Context, kind catalogKind, ownerID string, assignedOnly bool) ([]catalogRow, error) {
	var query string
	if assignedOnly {
		query = fmt.Sprintf(`
			SELECT DISTINCT c.id, c.user_id, c.name, c.created_at
			FROM %s c
			JOIN %s l ON l.%s = c.id
			JOIN recipes rec ON rec.id = l.recipe_id
			WHERE c.user_id = $1 AND rec.user_id = $1
			ORDER BY c.name DESC
		`, kind.table(), kind.linkTable(), kind.linkColumn())
	} else {
		query = fmt.Sprintf(`
			SELECT c.id, c.user_id, c.name, c.created_at
			FROM %s c
			WHERE c.user_id = $1
			ORDER BY c.name DESC
		`, kind.table())
	}

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind.table(), err)
	}
	defer rows.Close()

	var items []catalogRow
	for rows.Next() {
		var item catalogRow
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind.table(), err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", kind.table(), err)
	}

	return items, nil
}

// createCatalog inserts a catalog item and fills in its generated id.
func (r *Repository) createCatalog(ctx context.Context, kind catalogKind, item *catalogRow) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, kind.table())

	err := r.pool.QueryRow(ctx, query, item.UserID, item.Name, item.CreatedAt).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create %s item: %w", kind.table(), err)
	}

	return nil
}

// resolveOwnedCatalogIDs returns the subset of ids that exist and belong to
// the owner. Callers compare lengths to detect foreign or unknown ids.
func (r *Repository) resolveOwnedCatalogIDs(ctx context.Context, kind catalogKind, ownerID string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE user_id = $1 AND id = ANY($2)
	`, kind.table())

	rows, err := r.pool.Query(ctx, query, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s ids: %w", kind.table(), err)
	}
	defer rows.Close()

	var found []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", kind.table(), err)
		}
		found = append(found, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s ids: %w", kind.table(), err)
	}

	return found, nil
}

// ListTags returns the owner's tags ordered by name descending.
func (r *Repository) ListTags(ctx context.Context, ownerID string, assignedOnly bool) ([]model.Tag, error) {
	rows, err := r.listCatalog(ctx, kindTag, ownerID, assignedOnly)
	if err != nil {
		return nil, err
	}

	tags := make([]model.Tag, len(rows))
	for i, row := range rows {
		tags[i] = model.Tag{ID: row.ID, UserID: row.UserID, Name: row.Name, CreatedAt: row.CreatedAt}
	}
	return tags, nil
}

// CreateTag inserts a tag and fills in its generated id.
func (r *Repository) CreateTag(ctx context.Context, tag *model.Tag) error {
	row := catalogRow{UserID: tag.UserID, Name: tag.Name, CreatedAt: tag.CreatedAt}
	if err := r.createCatalog(ctx, kindTag, &row); err != nil {
		return err
	}
	tag.ID = row.ID
	return nil
}

// ResolveOwnedTagIDs returns the subset of tag ids owned by the user.
func (r *Repository) ResolveOwnedTagIDs(ctx context.Context, ownerID string, ids []int64) ([]int64, error) {
	return r.resolveOwnedCatalogIDs(ctx, kindTag, ownerID, ids)
}

// ListIngredients returns the owner's ingredients ordered by name descending.
func (r *Repository) ListIngredients(ctx context.Context, ownerID string, assignedOnly bool) ([]model.Ingredient, error) {
	rows, err := r.listCatalog(ctx, kindIngredient, ownerID, assignedOnly)
	if err != nil {
		return nil, err
	}

	ingredients := make([]model.Ingredient, len(rows))
	for i, row := range rows {
		ingredients[i] = model.Ingredient{ID: row.ID, UserID: row.UserID, Name: row.Name, CreatedAt: row.CreatedAt}
	}
	return ingredients, nil
}

// CreateIngredient inserts an ingredient and fills in its generated id.
func (r *Repository) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	row := catalogRow{UserID: ingredient.UserID, Name: ingredient.Name, CreatedAt: ingredient.CreatedAt}
	if err := r.createCatalog(ctx, kindIngredient, &row); err != nil {
		return err
	}
	ingredient.ID = row.ID
	return nil
}

// ResolveOwnedIngredientIDs returns the subset of ingredient ids owned by the user.
func (r *Repository) ResolveOwnedIngredientIDs(ctx context.Context, ownerID string, ids []int64) ([]int64, error) {
	return r.resolveOwnedCatalogIDs(ctx, kindIngredient, ownerID, ids)
}
