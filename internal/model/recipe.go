package model

import "time"

// Recipe is a user-owned recipe with many-to-many links to the owner's
// tags and ingredients and an optional stored image.
type Recipe struct {
	ID          int64        `json:"id"`
	UserID      string       `json:"-"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       float64      `json:"price"`
	Link        string       `json:"link,omitempty"`
	ImagePath   string       `json:"-"` // Relative storage path; handlers expose a URL
	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasImage reports whether an image has been stored for the recipe.
func (r *Recipe) HasImage() bool {
	return r.ImagePath != ""
}
