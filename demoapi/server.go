// Package demoapi is a local stand-in for the dummyjson demo API serving
// posts, recipes and todos. It backs the integration tests and lets the shell
// run without network access.
package demoapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Resources served by the demo API.
var Resources = []string{"posts", "recipes", "todos"}

// NewRouter returns the HTTP handler for the demo API.
func NewRouter(store Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	NewHandler(store, logger, Resources...).Routes(r)
	return r
}

// Seed stores the fixture records of every resource.
func Seed(ctx context.Context, store Store) error {
	for resource, docs := range fixtures {
		for i, doc := range docs {
			item := &Item{ID: int64(i + 1), Resource: resource}
			item.Merge(doc)
			if err := store.Save(ctx, item); err != nil {
				return fmt.Errorf("seed %s %d: %w", resource, item.ID, err)
			}
		}
	}
	return nil
}

var fixtures = map[string][]map[string]any{
	"posts": {
		{"title": "His mother had always taught him", "body": "His mother had always taught him not to ever think of himself as better than others.", "userId": 121},
		{"title": "He was an expert but not in a discipline", "body": "He was an expert but not in a discipline that anyone could fully appreciate.", "userId": 91},
		{"title": "Dave watched as the forest burned up on the hill.", "body": "Dave watched as the forest burned up on the hill, only a few miles from her house.", "userId": 16},
	},
	"recipes": {
		{"name": "Classic Margherita Pizza", "ingredients": []any{"Pizza dough", "Tomato sauce", "Fresh mozzarella cheese", "Fresh basil leaves"}},
		{"name": "Vegetarian Stir-Fry", "ingredients": []any{"Tofu, cubed", "Broccoli florets", "Carrots, sliced", "Soy sauce"}},
	},
	"todos": {
		{"todo": "Do something nice for someone you care about", "completed": false, "userId": 152},
		{"todo": "Memorize a poem", "completed": true, "userId": 13},
		{"todo": "Watch a classic movie", "completed": true, "userId": 68},
	},
}
