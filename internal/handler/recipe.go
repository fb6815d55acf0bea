package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forkful/forkful/internal/auth"
	"github.com/forkful/forkful/internal/handler/dto"
	"github.com/forkful/forkful/internal/service"
)

// RecipeHandler handles HTTP requests for recipe operations.
type RecipeHandler struct {
	svc       *service.RecipeService
	baseURL   string
	maxUpload int64
	logger    *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc *service.RecipeService, baseURL string, maxUpload int64, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		svc:       svc,
		baseURL:   baseURL,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// List handles GET /api/recipe/recipes.
// The `tags` and `ingredients` query parameters hold comma-separated id
// lists; each restricts to recipes with at least one matching link and
// both compose with AND.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	tagIDs, err := dto.ParseIDList(query.Get("tags"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILTER", "tags must be a comma-separated list of ids")
		return
	}
	ingredientIDs, err := dto.ParseIDList(query.Get("ingredients"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILTER", "ingredients must be a comma-separated list of ids")
		return
	}

	recipes, err := h.svc.ListRecipes(r.Context(), userID, service.RecipeFilters{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRecipeListResponse(recipes, h.baseURL))
}

// Create handles POST /api/recipe/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	recipe, err := h.svc.CreateRecipe(r.Context(), userID, service.CreateRecipeInput{
		Title:         req.Title,
		TimeMinutes:   req.TimeMinutes,
		Price:         req.Price,
		Link:          req.Link,
		TagIDs:        req.Tags,
		IngredientIDs: req.Ingredients,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("recipe_created", "recipe_id", recipe.ID, "user_id", userID)

	writeJSON(w, http.StatusCreated, dto.ToRecipeResponse(recipe, h.baseURL))
}

// Get handles GET /api/recipe/recipes/{id}.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	recipe, err := h.svc.GetRecipe(r.Context(), userID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRecipeResponse(recipe, h.baseURL))
}

// Update handles PUT and PATCH /api/recipe/recipes/{id}.
//
// PUT is a full replacement: association lists absent from the body are
// cleared. PATCH is partial: absent fields and lists are left untouched.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	partial := r.Method == http.MethodPatch

	recipe, err := h.svc.UpdateRecipe(r.Context(), userID, id, service.UpdateRecipeInput{
		Title:         req.Title,
		TimeMinutes:   req.TimeMinutes,
		Price:         req.Price,
		Link:          req.Link,
		TagIDs:        req.Tags,
		IngredientIDs: req.Ingredients,
	}, partial)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("recipe_updated", "recipe_id", recipe.ID, "user_id", userID, "partial", partial)

	writeJSON(w, http.StatusOK, dto.ToRecipeResponse(recipe, h.baseURL))
}

// UploadImage handles POST /api/recipe/recipes/{id}/upload-image.
// The image arrives as the multipart form field "image".
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "Expected a multipart form upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_IMAGE", "Multipart field 'image' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNREADABLE_IMAGE", "Could not read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "Uploaded image exceeds the size limit")
		return
	}

	recipe, err := h.svc.SetImage(r.Context(), userID, id, header.Filename, data)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("recipe_image_uploaded", "recipe_id", recipe.ID, "user_id", userID)

	writeJSON(w, http.StatusOK, dto.RecipeImageResponse{
		ID:    recipe.ID,
		Image: dto.ImageURL(h.baseURL, recipe.ImagePath),
	})
}

// recipeID parses the {id} URL parameter. A non-numeric id cannot name
// any recipe, so it is reported as not found.
func recipeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found")
		return 0, false
	}
	return id, true
}

// handleServiceError maps recipe service errors to HTTP responses.
func (h *RecipeHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		writeError(w, http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found")
	case errors.Is(err, service.ErrEmptyTitle):
		writeError(w, http.StatusBadRequest, "EMPTY_TITLE", "Title must not be empty")
	case errors.Is(err, service.ErrNegativeTime):
		writeError(w, http.StatusBadRequest, "NEGATIVE_TIME", "time_minutes must not be negative")
	case errors.Is(err, service.ErrNegativePrice):
		writeError(w, http.StatusBadRequest, "NEGATIVE_PRICE", "price must not be negative")
	case errors.Is(err, service.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "title, time_minutes and price are required")
	case errors.Is(err, service.ErrUnknownTagID):
		writeError(w, http.StatusBadRequest, "UNKNOWN_TAG", "One or more tag ids do not exist")
	case errors.Is(err, service.ErrUnknownIngredientID):
		writeError(w, http.StatusBadRequest, "UNKNOWN_INGREDIENT", "One or more ingredient ids do not exist")
	case errors.Is(err, service.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, "INVALID_IMAGE", "Payload is not a decodable image")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
