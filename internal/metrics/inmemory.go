package metrics

import "sync/atomic"

// InMemoryRecorder implements Recorder with atomic counters.
// Useful for tests and for the debug snapshot endpoint.
type InMemoryRecorder struct {
	usersRegistered    atomic.Int64
	tokensIssued       atomic.Int64
	authFailures       atomic.Int64
	tagsCreated        atomic.Int64
	ingredientsCreated atomic.Int64
	recipesCreated     atomic.Int64
	recipesUpdated     atomic.Int64
	imagesUploaded     atomic.Int64
}

// NewInMemory returns a Recorder backed by atomic counters.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// IncUserRegistered increments the registered-user counter.
func (m *InMemoryRecorder) IncUserRegistered() { m.usersRegistered.Add(1) }

// IncTokenIssued increments the issued-token counter.
func (m *InMemoryRecorder) IncTokenIssued() { m.tokensIssued.Add(1) }

// IncAuthFailure increments the auth-failure counter.
func (m *InMemoryRecorder) IncAuthFailure() { m.authFailures.Add(1) }

// IncTagCreated increments the created-tag counter.
func (m *InMemoryRecorder) IncTagCreated() { m.tagsCreated.Add(1) }

// IncIngredientCreated increments the created-ingredient counter.
func (m *InMemoryRecorder) IncIngredientCreated() { m.ingredientsCreated.Add(1) }

// IncRecipeCreated increments the created-recipe counter.
func (m *InMemoryRecorder) IncRecipeCreated() { m.recipesCreated.Add(1) }

// IncRecipeUpdated increments the updated-recipe counter.
func (m *InMemoryRecorder) IncRecipeUpdated() { m.recipesUpdated.Add(1) }

// IncImageUploaded increments the uploaded-image counter.
func (m *InMemoryRecorder) IncImageUploaded() { m.imagesUploaded.Add(1) }

// Snapshot returns the current counter values.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:    m.usersRegistered.Load(),
		TokensIssued:       m.tokensIssued.Load(),
		AuthFailures:       m.authFailures.Load(),
		TagsCreated:        m.tagsCreated.Load(),
		IngredientsCreated: m.ingredientsCreated.Load(),
		RecipesCreated:     m.recipesCreated.Load(),
		RecipesUpdated:     m.recipesUpdated.Load(),
		ImagesUploaded:     m.imagesUploaded.Load(),
	}
}
