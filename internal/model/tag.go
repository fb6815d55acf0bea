package model

import "time"

// Tag labels recipes and belongs to exactly one user.
type Tag struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// String returns the tag's display representation.
func (t Tag) String() string {
	return t.Name
}
