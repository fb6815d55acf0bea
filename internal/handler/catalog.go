package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forkful/forkful/internal/auth"
	"github.com/forkful/forkful/internal/handler/dto"
	"github.com/forkful/forkful/internal/service"
)

// CatalogHandler handles HTTP requests for the tag and ingredient
// catalogs. Both share the same request/response shapes.
type CatalogHandler struct {
	svc    *service.CatalogService
	logger *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// ListTags handles GET /api/recipe/tags.
// With ?assigned_only=1 only tags attached to a recipe are returned.
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	assignedOnly := dto.ParseBool(r.URL.Query().Get("assigned_only"))

	tags, err := h.svc.ListTags(r.Context(), userID, assignedOnly)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTagListResponse(tags))
}

// CreateTag handles POST /api/recipe/tags.
func (h *CatalogHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.CreateCatalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	tag, err := h.svc.CreateTag(r.Context(), userID, req.Name)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("tag_created", "tag_id", tag.ID, "user_id", userID)

	writeJSON(w, http.StatusCreated, dto.ToTagResponse(tag))
}

// ListIngredients handles GET /api/recipe/ingredients.
func (h *CatalogHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	assignedOnly := dto.ParseBool(r.URL.Query().Get("assigned_only"))

	ingredients, err := h.svc.ListIngredients(r.Context(), userID, assignedOnly)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToIngredientListResponse(ingredients))
}

// CreateIngredient handles POST /api/recipe/ingredients.
func (h *CatalogHandler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.CreateCatalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	ingredient, err := h.svc.CreateIngredient(r.Context(), userID, req.Name)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("ingredient_created", "ingredient_id", ingredient.ID, "user_id", userID)

	writeJSON(w, http.StatusCreated, dto.ToIngredientResponse(ingredient))
}

// handleServiceError maps catalog service errors to HTTP responses.
func (h *CatalogHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "EMPTY_NAME", "Name must not be empty")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
