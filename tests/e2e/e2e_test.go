//go:build e2e

// Package e2e exercises a running server end to end over HTTP.
// Requires the API and its backing services to be up.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"
)

type userPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

type catalogItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type recipePayload struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	TimeMinutes int           `json:"time_minutes"`
	Price       float64       `json:"price"`
	Tags        []catalogItem `json:"tags"`
	Ingredients []catalogItem `json:"ingredients"`
	Image       *string       `json:"image"`
}

type imagePayload struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("FORKFUL_BASE_URL", "http://localhost:8080")
	client := &http.Client{Timeout: 10 * time.Second}

	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
	password := "pw12345"

	// Unauthenticated requests to the recipe surface are rejected.
	resp := doJSON(t, client, http.MethodGet, baseURL+"/api/recipe/recipes", "", nil)
	requireStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	// Register
	var user userPayload
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/user/create", "", map[string]any{
		"email":    email,
		"password": password,
		"name":     "E2E User",
	})
	requireStatus(t, resp, http.StatusCreated)
	decode(t, resp, &user)
	if user.Email != email {
		t.Fatalf("registered email = %q, want %q", user.Email, email)
	}

	// Token issue is idempotent
	token := issueToken(t, client, baseURL, email, password)
	if again := issueToken(t, client, baseURL, email, password); again != token {
		t.Fatalf("second login returned a different token")
	}

	// Create a tag and an ingredient
	var tag, ingredient catalogItem
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/recipe/tags", token, map[string]any{"name": "Vegan"})
	requireStatus(t, resp, http.StatusCreated)
	decode(t, resp, &tag)

	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/recipe/ingredients", token, map[string]any{"name": "Flour"})
	requireStatus(t, resp, http.StatusCreated)
	decode(t, resp, &ingredient)

	// Create a recipe referencing both
	var recipe recipePayload
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/recipe/recipes", token, map[string]any{
		"title":        "Cake",
		"time_minutes": 5,
		"price":        60.0,
		"tags":         []int64{tag.ID},
		"ingredients":  []int64{ingredient.ID},
	})
	requireStatus(t, resp, http.StatusCreated)
	decode(t, resp, &recipe)
	if len(recipe.Tags) != 1 || recipe.Tags[0].Name != "Vegan" {
		t.Fatalf("recipe tags = %+v, want embedded Vegan tag", recipe.Tags)
	}

	// Tag filter matches, foreign filter does not
	listURL := fmt.Sprintf("%s/api/recipe/recipes?tags=%d", baseURL, tag.ID)
	var listed []recipePayload
	resp = doJSON(t, client, http.MethodGet, listURL, token, nil)
	requireStatus(t, resp, http.StatusOK)
	decode(t, resp, &listed)
	if len(listed) != 1 || listed[0].ID != recipe.ID {
		t.Fatalf("filtered list = %+v, want the created recipe", listed)
	}

	// PATCH keeps associations
	resp = doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/api/recipe/recipes/%d", baseURL, recipe.ID), token, map[string]any{
		"title": "Chocolate Cake",
	})
	requireStatus(t, resp, http.StatusOK)
	decode(t, resp, &recipe)
	if recipe.Title != "Chocolate Cake" || len(recipe.Tags) != 1 {
		t.Fatalf("after PATCH: title=%q tags=%d, want title updated and tags kept", recipe.Title, len(recipe.Tags))
	}

	// PUT without lists clears associations
	resp = doJSON(t, client, http.MethodPut, fmt.Sprintf("%s/api/recipe/recipes/%d", baseURL, recipe.ID), token, map[string]any{
		"title":        "Plain Cake",
		"time_minutes": 10,
		"price":        30.0,
	})
	requireStatus(t, resp, http.StatusOK)
	decode(t, resp, &recipe)
	if len(recipe.Tags) != 0 || len(recipe.Ingredients) != 0 {
		t.Fatalf("after PUT: tags=%d ingredients=%d, want both cleared", len(recipe.Tags), len(recipe.Ingredients))
	}

	// Upload an image
	uploaded := uploadImage(t, client, baseURL, token, recipe.ID)
	if uploaded.Image == "" {
		t.Fatal("upload returned an empty image URL")
	}

	// Non-image payload is rejected
	resp = uploadRaw(t, client, baseURL, token, recipe.ID, "notes.txt", []byte("not an image"))
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func issueToken(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()

	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/user/token", "", map[string]any{
		"email":    email,
		"password": password,
	})
	requireStatus(t, resp, http.StatusOK)

	var payload tokenPayload
	decode(t, resp, &payload)
	if payload.Token == "" {
		t.Fatal("empty token in response")
	}
	return payload.Token
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Skipf("server not available: %v", err)
	}
	return resp
}

func uploadImage(t *testing.T, client *http.Client, baseURL, token string, recipeID int64) imagePayload {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), A: 255})
		}
	}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	resp := uploadRaw(t, client, baseURL, token, recipeID, "photo.png", buf.Bytes())
	requireStatus(t, resp, http.StatusOK)

	var payload imagePayload
	decode(t, resp, &payload)
	return payload
}

func uploadRaw(t *testing.T, client *http.Client, baseURL, token string, recipeID int64, filename string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	url := fmt.Sprintf("%s/api/recipe/recipes/%d/upload-image", baseURL, recipeID)
	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		t.Skipf("server not available: %v", err)
	}
	return resp
}

func requireStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d. body: %s", resp.StatusCode, want, body)
	}
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
