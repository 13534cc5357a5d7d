package pages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optilist/demoapi"
	"optilist/optimistic"
	"optilist/record"
	"optilist/remote"
)

// apiHarness runs the demo API and lets a test count or hijack requests.
type apiHarness struct {
	store *demoapi.MemoryStore

	mu       sync.Mutex
	calls    map[string]int
	override map[string]http.HandlerFunc
}

func newHarness(t *testing.T) (*apiHarness, *remote.Client) {
	t.Helper()
	h := &apiHarness{
		store:    demoapi.NewMemoryStore(),
		calls:    make(map[string]int),
		override: make(map[string]http.HandlerFunc),
	}
	require.NoError(t, demoapi.Seed(context.Background(), h.store))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := demoapi.NewRouter(h.store, logger)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		h.mu.Lock()
		h.calls[key]++
		fn := h.override[key]
		h.mu.Unlock()
		if fn != nil {
			fn(w, r)
			return
		}
		api.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return h, remote.New(srv.URL, remote.WithTimeout(2*time.Second))
}

func (h *apiHarness) count(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[key]
}

func (h *apiHarness) fail(key string, status int) {
	h.respond(key, status, `{"message":"injected failure"}`)
}

func (h *apiHarness) respond(key string, status int, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.override[key] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func quiet() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSetInitializeLoadsAllResources(t *testing.T) {
	_, client := newHarness(t)
	var changed []string
	opts := quiet()
	opts.OnChange = func(resource string) { changed = append(changed, resource) }
	set := New(client, opts)

	require.NoError(t, set.Initialize(context.Background()))
	assert.Len(t, set.Posts.Records(), 3)
	assert.Len(t, set.Todos.Records(), 3)
	recipes := set.Recipes.Records()
	require.Len(t, recipes, 2)
	assert.Equal(t, record.Ingredients("Pizza dough, Tomato sauce, Fresh mozzarella cheese, Fresh basil leaves"), recipes[0].Ingredients)
	assert.Equal(t, []string{"posts", "recipes", "todos"}, changed)
}

func TestSetInitializeReportsFailure(t *testing.T) {
	h, client := newHarness(t)
	h.fail("GET /recipes", http.StatusInternalServerError)

	var failures []*optimistic.Failure
	opts := quiet()
	opts.OnFailure = func(f *optimistic.Failure) { failures = append(failures, f) }
	set := New(client, opts)

	err := set.Initialize(context.Background())
	assert.ErrorIs(t, err, remote.ErrRemoteFailed)
	assert.Empty(t, set.Recipes.Records())
	assert.Len(t, set.Posts.Records(), 3)
	require.Len(t, failures, 1)
	assert.Equal(t, "recipes", failures[0].Resource)
}

func TestPostsCreateConfirmsServerID(t *testing.T) {
	h, client := newHarness(t)
	posts := NewPosts(client, quiet())
	require.NoError(t, posts.Initialize(context.Background()))

	_, err := posts.Add(context.Background(), "", "body")
	assert.ErrorIs(t, err, optimistic.ErrInvalidInput)
	assert.Zero(t, h.count("POST /posts/add"))

	entry, err := posts.Add(context.Background(), "Buy milk", "two litres")
	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.ID())

	first := posts.Snapshot()[0]
	assert.Equal(t, optimistic.Confirmed, first.State)
	assert.Equal(t, record.Post{ID: 4, Title: "Buy milk", Body: "two litres"}, first.Value)

	stored, err := h.store.Get(context.Background(), "posts", 4)
	require.NoError(t, err)
	assert.Equal(t, float64(1), stored.Fields["userId"])
}

func TestPostsUpdateFailureReverts(t *testing.T) {
	h, client := newHarness(t)
	posts := NewPosts(client, quiet())
	require.NoError(t, posts.Initialize(context.Background()))
	h.fail("PUT /posts/2", http.StatusInternalServerError)

	before := posts.Snapshot()
	err := posts.Update(context.Background(), 2, optimistic.EditorFunc[record.Post](
		func(ctx context.Context, p record.Post) (record.Post, bool, error) {
			p.Title = "edited"
			return p, true, nil
		}))
	assert.ErrorIs(t, err, remote.ErrRemoteFailed)
	assert.Equal(t, before, posts.Snapshot())
}

func TestPostsDeleteFailureRefetches(t *testing.T) {
	h, client := newHarness(t)
	posts := NewPosts(client, quiet())
	require.NoError(t, posts.Initialize(context.Background()))

	// Someone else removed post 3 and added a new one.
	require.NoError(t, h.store.Delete(context.Background(), "posts", 3))
	_, err := h.store.Create(context.Background(), "posts", map[string]any{"title": "fresh", "body": "b"})
	require.NoError(t, err)

	err = posts.Delete(context.Background(), 3)
	var f *optimistic.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, optimistic.Refetch, f.Compensation)
	assert.Equal(t, 2, h.count("GET /posts"), "initial load plus exactly one refetch")

	ids := []int64{}
	for _, p := range posts.Records() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{1, 2, 4}, ids)
}

func TestRecipesPendingRecordStaysLocal(t *testing.T) {
	h, client := newHarness(t)
	recipes := NewRecipes(client, quiet())
	require.NoError(t, recipes.Initialize(context.Background()))
	h.fail("POST /recipes/add", http.StatusServiceUnavailable)

	entry, err := recipes.Add(context.Background(), "Soup", "water, salt")
	require.Error(t, err)
	require.Equal(t, optimistic.Pending, entry.State)
	tempID := entry.ID()

	require.NoError(t, recipes.Update(context.Background(), tempID, optimistic.EditorFunc[record.Recipe](
		func(ctx context.Context, r record.Recipe) (record.Recipe, bool, error) {
			r.Name = "Better soup"
			return r, true, nil
		})))
	require.NoError(t, recipes.Delete(context.Background(), tempID))

	_, ok := recipes.Get(tempID)
	assert.False(t, ok)
	assert.Len(t, recipes.Records(), 2)
	h.mu.Lock()
	defer h.mu.Unlock()
	for key := range h.calls {
		assert.False(t, strings.HasPrefix(key, "PUT ") || strings.HasPrefix(key, "DELETE "), key)
	}
	assert.Len(t, h.calls, 2, "only the initial list and the failed create reach the server")
}

func TestRecipesUpdateFailureKeepsEdit(t *testing.T) {
	h, client := newHarness(t)
	recipes := NewRecipes(client, quiet())
	require.NoError(t, recipes.Initialize(context.Background()))
	h.fail("PUT /recipes/1", http.StatusInternalServerError)

	err := recipes.Update(context.Background(), 1, optimistic.EditorFunc[record.Recipe](
		func(ctx context.Context, r record.Recipe) (record.Recipe, bool, error) {
			r.Ingredients = "just cheese"
			return r, true, nil
		}))
	require.Error(t, err)
	got, _ := recipes.Get(1)
	assert.Equal(t, record.Ingredients("just cheese"), got.Value.Ingredients)
	assert.Equal(t, 1, h.count("PUT /recipes/1"), "trailing slash in the item path is normalized")
}

func TestTodosDeleteFailureKeepsDeletion(t *testing.T) {
	h, client := newHarness(t)
	todos := NewTodos(client, quiet())
	require.NoError(t, todos.Initialize(context.Background()))
	h.fail("DELETE /todos/2", http.StatusInternalServerError)

	require.Error(t, todos.Delete(context.Background(), 2))
	_, ok := todos.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 1, h.count("GET /todos"))
}

func TestTodosCreateBuyMilk(t *testing.T) {
	h, client := newHarness(t)
	h.respond("POST /todos/add", http.StatusCreated, `{"id":42,"todo":"Buy milk","completed":false,"userId":1}`)
	todos := NewTodos(client, quiet())
	require.NoError(t, todos.Initialize(context.Background()))

	_, err := todos.Add(context.Background(), "Buy milk")
	require.NoError(t, err)
	first := todos.Records()[0]
	assert.Equal(t, int64(42), first.ID)
	assert.Equal(t, "Buy milk", first.Text)
}

func TestTodosToggleAdoptsServerValue(t *testing.T) {
	h, client := newHarness(t)
	todos := NewTodos(client, quiet())
	require.NoError(t, todos.Initialize(context.Background()))

	require.NoError(t, todos.Toggle(context.Background(), 1))
	got, _ := todos.Get(1)
	assert.True(t, got.Value.Completed)
	stored, err := h.store.Get(context.Background(), "todos", 1)
	require.NoError(t, err)
	assert.Equal(t, true, stored.Fields["completed"])

	// The server refuses the flip and reports the old value.
	h.respond("PATCH /todos/1", http.StatusOK, `{"id":1,"completed":true}`)
	require.NoError(t, todos.Toggle(context.Background(), 1))
	got, _ = todos.Get(1)
	assert.True(t, got.Value.Completed)
	assert.Equal(t, "Do something nice for someone you care about", got.Value.Text)
}

func TestTodosToggleFailureKeepsFlip(t *testing.T) {
	h, client := newHarness(t)
	todos := NewTodos(client, quiet())
	require.NoError(t, todos.Initialize(context.Background()))
	h.fail("PATCH /todos/2", http.StatusBadGateway)

	require.Error(t, todos.Toggle(context.Background(), 2))
	got, _ := todos.Get(2)
	assert.False(t, got.Value.Completed, "seeded as completed, flip kept")
}

func TestTodosUpdateTakesServerText(t *testing.T) {
	h, client := newHarness(t)
	todos := NewTodos(client, quiet())
	require.NoError(t, todos.Initialize(context.Background()))
	h.respond("PUT /todos/3", http.StatusOK, `{"id":3,"todo":"Watch a classic movie tonight"}`)

	require.NoError(t, todos.Update(context.Background(), 3, optimistic.EditorFunc[record.Todo](
		func(ctx context.Context, td record.Todo) (record.Todo, bool, error) {
			td.Text = "watch a classic movie tonight"
			return td, true, nil
		})))
	got, _ := todos.Get(3)
	assert.Equal(t, "Watch a classic movie tonight", got.Value.Text)
	assert.True(t, got.Value.Completed, "fields missing from the echo are kept")
}

func TestUnifiedPolicyOverridesPerResource(t *testing.T) {
	h, client := newHarness(t)
	opts := quiet()
	opts.Unified = true
	set := New(client, opts)
	require.NoError(t, set.Initialize(context.Background()))
	assert.Equal(t, optimistic.Unified, set.Todos.Policy())

	h.fail("DELETE /todos/2", http.StatusInternalServerError)
	before := set.Todos.Records()
	require.Error(t, set.Todos.Delete(context.Background(), 2))
	assert.Equal(t, before, set.Todos.Records())
}

func TestDefaultPolicies(t *testing.T) {
	_, client := newHarness(t)
	set := New(client, quiet())
	assert.Equal(t, PostsPolicy, set.Posts.Policy())
	assert.Equal(t, RecipesPolicy, set.Recipes.Policy())
	assert.Equal(t, TodosPolicy, set.Todos.Policy())
	assert.Equal(t, "Welcome to\nMaharayatara's Page", set.Home.String())
}
