package model

import "time"

// Ingredient is a recipe component owned by exactly one user.
type Ingredient struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// String returns the ingredient's display representation.
func (i Ingredient) String() string {
	return i.Name
}
