// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Identity metrics
	IncUserRegistered()
	IncTokenIssued()
	IncAuthFailure()

	// Catalog metrics
	IncTagCreated()
	IncIngredientCreated()

	// Recipe metrics
	IncRecipeCreated()
	IncRecipeUpdated()
	IncImageUploaded()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time view of the in-memory counters.
type Snapshot struct {
	UsersRegistered    int64 `json:"users_registered"`
	TokensIssued       int64 `json:"tokens_issued"`
	AuthFailures       int64 `json:"auth_failures"`
	TagsCreated        int64 `json:"tags_created"`
	IngredientsCreated int64 `json:"ingredients_created"`
	RecipesCreated     int64 `json:"recipes_created"`
	RecipesUpdated     int64 `json:"recipes_updated"`
	ImagesUploaded     int64 `json:"images_uploaded"`
}
