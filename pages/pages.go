// Package pages wires one optimistic controller per demo API resource with the
// failure handling each list uses.
package pages

import (
	"context"
	"log/slog"

	"optilist/optimistic"
	"optilist/record"
	"optilist/remote"
)

// Per-resource compensation, as each list has always behaved.
var (
	PostsPolicy = optimistic.Policy{
		Create: optimistic.Keep,
		Update: optimistic.Revert,
		Delete: optimistic.Refetch,
	}
	RecipesPolicy = optimistic.Policy{
		Create:      optimistic.Keep,
		Update:      optimistic.Keep,
		Delete:      optimistic.Keep,
		SkipPending: true,
	}
	TodosPolicy = optimistic.Policy{
		Create:          optimistic.Keep,
		Update:          optimistic.Keep,
		Delete:          optimistic.Keep,
		ReconcileUpdate: true,
	}
)

var (
	postsEndpoint = remote.Endpoint{
		Collection: "posts",
		ListPath:   "posts",
		CreatePath: "posts/add",
		ItemPath:   "posts",
	}
	recipesEndpoint = remote.Endpoint{
		Collection: "recipes",
		ListPath:   "recipes",
		CreatePath: "recipes/add",
		ItemPath:   "recipes/",
	}
	todosEndpoint = remote.Endpoint{
		Collection: "todos",
		ListPath:   "todos",
		CreatePath: "todos/add",
		ItemPath:   "todos",
	}
)

// Options configures all pages built by New.
type Options struct {
	// Unified replaces the per-resource policies with optimistic.Unified.
	Unified   bool
	Logger    *slog.Logger
	OnFailure func(*optimistic.Failure)
	OnChange  func(resource string)
}

// Set is the three resource pages plus the landing view.
type Set struct {
	Home    Landing
	Posts   *Posts
	Recipes *Recipes
	Todos   *Todos
}

// New builds every page on top of client.
func New(client *remote.Client, opts Options) *Set {
	return &Set{
		Home:    DefaultLanding,
		Posts:   NewPosts(client, opts),
		Recipes: NewRecipes(client, opts),
		Todos:   NewTodos(client, opts),
	}
}

// Initialize loads every list. Each failure is reported through the page's
// failure handler; the first one is returned.
func (s *Set) Initialize(ctx context.Context) error {
	var first error
	for _, load := range []func(context.Context) error{
		s.Posts.Initialize,
		s.Recipes.Initialize,
		s.Todos.Initialize,
	} {
		if err := load(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func controllerOptions[R optimistic.Record[R]](name string, policy optimistic.Policy, opts Options) []optimistic.Option[R] {
	if opts.Unified {
		policy = optimistic.Unified
	}
	out := []optimistic.Option[R]{optimistic.WithPolicy[R](policy)}
	if opts.Logger != nil {
		out = append(out, optimistic.WithLogger[R](opts.Logger))
	}
	if opts.OnFailure != nil {
		out = append(out, optimistic.WithFailureHandler[R](opts.OnFailure))
	}
	if opts.OnChange != nil {
		out = append(out, optimistic.WithChangeHandler[R](func() { opts.OnChange(name) }))
	}
	return out
}

// Posts is the posts list.
type Posts struct {
	*optimistic.Controller[record.Post]
}

// NewPosts builds the posts page.
func NewPosts(client *remote.Client, opts Options) *Posts {
	res := remote.NewResource[record.Post](client, postsEndpoint,
		func(p record.Post) any { return p.CreateRequest() },
		func(p record.Post) any { return p.UpdateRequest() },
	)
	return &Posts{optimistic.NewController[record.Post]("posts", res,
		controllerOptions[record.Post]("posts", PostsPolicy, opts)...)}
}

// Add creates a post from title and body.
func (p *Posts) Add(ctx context.Context, title, body string) (optimistic.Entry[record.Post], error) {
	return p.Create(ctx, record.Post{Title: title, Body: body})
}

// Recipes is the recipes list.
type Recipes struct {
	*optimistic.Controller[record.Recipe]
}

// NewRecipes builds the recipes page.
func NewRecipes(client *remote.Client, opts Options) *Recipes {
	body := func(r record.Recipe) any { return r.Request() }
	res := remote.NewResource[record.Recipe](client, recipesEndpoint, body, body)
	return &Recipes{optimistic.NewController[record.Recipe]("recipes", res,
		controllerOptions[record.Recipe]("recipes", RecipesPolicy, opts)...)}
}

// Add creates a recipe.
func (r *Recipes) Add(ctx context.Context, name, ingredients string) (optimistic.Entry[record.Recipe], error) {
	return r.Create(ctx, record.Recipe{Name: name, Ingredients: record.Ingredients(ingredients)})
}

// Todos is the todos list.
type Todos struct {
	*optimistic.Controller[record.Todo]
	res *remote.Resource[record.Todo]
}

// NewTodos builds the todos page. A successful edit takes the text the server
// echoes back.
func NewTodos(client *remote.Client, opts Options) *Todos {
	res := remote.NewResource[record.Todo](client, todosEndpoint,
		func(t record.Todo) any { return t.CreateRequest() },
		func(t record.Todo) any { return t.UpdateRequest() },
	)
	copts := controllerOptions[record.Todo]("todos", TodosPolicy, opts)
	copts = append(copts, optimistic.WithUpdateReconciler[record.Todo](func(local, echo record.Todo) record.Todo {
		if echo.Text != "" {
			local.Text = echo.Text
		}
		return local
	}))
	return &Todos{
		Controller: optimistic.NewController[record.Todo]("todos", res, copts...),
		res:        res,
	}
}

// Add creates an open todo.
func (t *Todos) Add(ctx context.Context, text string) (optimistic.Entry[record.Todo], error) {
	return t.Create(ctx, record.Todo{Text: text})
}

// Toggle flips completed at once, then adopts whatever the server reports.
func (t *Todos) Toggle(ctx context.Context, id int64) error {
	return t.Mutate(ctx, optimistic.OpToggle, id,
		func(td record.Todo) record.Todo {
			td.Completed = !td.Completed
			return td
		},
		func(ctx context.Context, id int64, td record.Todo) (record.Todo, error) {
			return t.res.Patch(ctx, id, record.TodoToggleRequest{Completed: td.Completed})
		},
		func(local, echo record.Todo) record.Todo {
			local.Completed = echo.Completed
			return local
		},
	)
}
