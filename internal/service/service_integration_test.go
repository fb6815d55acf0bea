//go:build integration

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/forkful/forkful/internal/auth"
	"github.com/forkful/forkful/internal/repository"
	"github.com/forkful/forkful/internal/testutil"
)

// recordingInvalidator captures auth cache evictions.
type recordingInvalidator struct {
	keys []string
}

func (f *recordingInvalidator) DeleteAuthContext(_ context.Context, cacheKey string) error {
	f.keys = append(f.keys, cacheKey)
	return nil
}

func newServiceTestEnv(t *testing.T) (context.Context, *repository.Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	if err := testutil.ApplyMigrations(ctx, dbURL); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.TruncateAll(ctx, repo.Pool()); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return ctx, repo
}

func TestIntegrationUserService_RegisterAndAuthenticate(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	svc := NewUserService(repo, nil, nil)

	email := testutil.UniqueEmail("svc")
	user, err := svc.Register(ctx, RegisterInput{Email: email, Password: "pw12345", Name: "Svc"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !user.IsActive {
		t.Error("registered user should be active")
	}

	authed, err := svc.Authenticate(ctx, email, "pw12345")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("authenticated wrong user: %q", authed.ID)
	}

	if _, err := svc.Authenticate(ctx, email, "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestIntegrationUserService_DuplicateEmail(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	svc := NewUserService(repo, nil, nil)

	email := testutil.UniqueEmail("dup")
	if _, err := svc.Register(ctx, RegisterInput{Email: email, Password: "pw12345"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Email: email, Password: "pw12345"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got: %v", err)
	}
}

func TestIntegrationUserService_TokenIdempotent(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Register(ctx, RegisterInput{Email: testutil.UniqueEmail("tok"), Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	first, err := svc.IssueToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	second, err := svc.IssueToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssueToken (again) failed: %v", err)
	}
	if first.Key != second.Key {
		t.Errorf("token not idempotent: %q vs %q", first.Key, second.Key)
	}
}

func TestIntegrationUserService_UpdateProfileRehashesPassword(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	svc := NewUserService(repo, nil, nil)

	email := testutil.UniqueEmail("upd")
	user, err := svc.Register(ctx, RegisterInput{Email: email, Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	newPassword := "newpass99"
	if _, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Password: &newPassword}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, email, "pw12345"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted")
	}
	if _, err := svc.Authenticate(ctx, email, newPassword); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestIntegrationUserService_UpdateProfileEvictsAuthContext(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	invalidator := &recordingInvalidator{}
	svc := NewUserService(repo, invalidator, nil)

	user, err := svc.Register(ctx, RegisterInput{Email: testutil.UniqueEmail("evict"), Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token, err := svc.IssueToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	newName := "Renamed"
	if _, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &newName}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	want := auth.QuickHash(token.Key)
	if len(invalidator.keys) != 1 || invalidator.keys[0] != want {
		t.Errorf("evicted keys = %v, want exactly [%s]", invalidator.keys, want)
	}
}

func TestIntegrationRecipeService_ForeignTagRejected(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	users := NewUserService(repo, nil, nil)
	catalog := NewCatalogService(repo, nil)
	recipes := NewRecipeService(repo, nil, nil)

	alice, err := users.Register(ctx, RegisterInput{Email: testutil.UniqueEmail("alice"), Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	bob, err := users.Register(ctx, RegisterInput{Email: testutil.UniqueEmail("bob"), Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	aliceTag, err := catalog.CreateTag(ctx, alice.ID, "Vegan")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	_, err = recipes.CreateRecipe(ctx, bob.ID, CreateRecipeInput{
		Title:       "Cake",
		TimeMinutes: 5,
		Price:       60.0,
		TagIDs:      []int64{aliceTag.ID},
	})
	if !errors.Is(err, ErrUnknownTagID) {
		t.Errorf("Expected ErrUnknownTagID for foreign tag, got: %v", err)
	}
}

func TestIntegrationRecipeService_FullUpdateClearsAssociations(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	users := NewUserService(repo, nil, nil)
	catalog := NewCatalogService(repo, nil)
	recipes := NewRecipeService(repo, nil, nil)

	user, err := users.Register(ctx, RegisterInput{Email: testutil.UniqueEmail("full"), Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	tag, err := catalog.CreateTag(ctx, user.ID, "Vegan")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	recipe, err := recipes.CreateRecipe(ctx, user.ID, CreateRecipeInput{
		Title:       "Cake",
		TimeMinutes: 5,
		Price:       60.0,
		TagIDs:      []int64{tag.ID},
	})
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	if len(recipe.Tags) != 1 {
		t.Fatalf("created recipe has %d tags, want 1", len(recipe.Tags))
	}

	// PATCH without lists keeps them
	title := "Chocolate Cake"
	patched, err := recipes.UpdateRecipe(ctx, user.ID, recipe.ID, UpdateRecipeInput{Title: &title}, true)
	if err != nil {
		t.Fatalf("UpdateRecipe (partial) failed: %v", err)
	}
	if len(patched.Tags) != 1 {
		t.Errorf("partial update dropped tags: %+v", patched.Tags)
	}

	// PUT without lists clears them
	mins := 10
	price := 30.0
	replaced, err := recipes.UpdateRecipe(ctx, user.ID, recipe.ID, UpdateRecipeInput{
		Title:       &title,
		TimeMinutes: &mins,
		Price:       &price,
	}, false)
	if err != nil {
		t.Fatalf("UpdateRecipe (full) failed: %v", err)
	}
	if len(replaced.Tags) != 0 {
		t.Errorf("full update kept tags: %+v", replaced.Tags)
	}
}

func TestIntegrationRecipeService_FullUpdateRequiresScalars(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)
	users := NewUserService(repo, nil, nil)
	recipes := NewRecipeService(repo, nil, nil)

	user, err := users.Register(ctx, RegisterInput{Email: testutil.UniqueEmail("req"), Password: "pw12345"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	recipe, err := recipes.CreateRecipe(ctx, user.ID, CreateRecipeInput{
		Title:       "Cake",
		TimeMinutes: 5,
		Price:       60.0,
	})
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	// Full update with a missing required scalar is rejected, and the
	// stored recipe is untouched.
	title := "Chocolate Cake"
	if _, err := recipes.UpdateRecipe(ctx, user.ID, recipe.ID, UpdateRecipeInput{Title: &title}, false); !errors.Is(err, ErrMissingFields) {
		t.Errorf("Expected ErrMissingFields, got: %v", err)
	}

	got, err := recipes.GetRecipe(ctx, user.ID, recipe.ID)
	if err != nil {
		t.Fatalf("GetRecipe failed: %v", err)
	}
	if got.Title != "Cake" || got.TimeMinutes != 5 {
		t.Errorf("rejected update mutated the recipe: %+v", got)
	}

	// The same omission on a partial update keeps current values.
	patched, err := recipes.UpdateRecipe(ctx, user.ID, recipe.ID, UpdateRecipeInput{Title: &title}, true)
	if err != nil {
		t.Fatalf("UpdateRecipe (partial) failed: %v", err)
	}
	if patched.Title != "Chocolate Cake" || patched.TimeMinutes != 5 {
		t.Errorf("partial update wrong result: %+v", patched)
	}
}
