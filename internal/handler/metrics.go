package handler

import (
	"fmt"
	"net/http"

	"github.com/forkful/forkful/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "forkful_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "forkful_tokens_issued_total %d\n", snap.TokensIssued)
	writeMetric(w, "forkful_auth_failures_total %d\n", snap.AuthFailures)
	writeMetric(w, "forkful_tags_created_total %d\n", snap.TagsCreated)
	writeMetric(w, "forkful_ingredients_created_total %d\n", snap.IngredientsCreated)
	writeMetric(w, "forkful_recipes_created_total %d\n", snap.RecipesCreated)
	writeMetric(w, "forkful_recipes_updated_total %d\n", snap.RecipesUpdated)
	writeMetric(w, "forkful_images_uploaded_total %d\n", snap.ImagesUploaded)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
