// Package record defines the resource types served by the demo API: posts,
// recipes and todos.
package record

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMissingField is returned by Validate when a required text field is blank.
var ErrMissingField = errors.New("required field is empty")

// defaultUserID is the owner sent with new posts and todos.
const defaultUserID = 1

// Post represents a blog post.
type Post struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int64  `json:"userId,omitempty"`
}

// RecordID returns the post id.
func (p Post) RecordID() int64 { return p.ID }

// WithID returns a copy of the post carrying id.
func (p Post) WithID(id int64) Post {
	p.ID = id
	return p
}

// Validate requires a non-blank title and body.
func (p Post) Validate() error {
	return required(p.Title, p.Body)
}

// PostCreateRequest is the payload for POST posts/add.
type PostCreateRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int64  `json:"userId"`
}

// PostUpdateRequest is the payload for PUT posts/{id}.
type PostUpdateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CreateRequest builds the create payload for p.
func (p Post) CreateRequest() PostCreateRequest {
	return PostCreateRequest{Title: p.Title, Body: p.Body, UserID: defaultUserID}
}

// UpdateRequest builds the update payload for p.
func (p Post) UpdateRequest() PostUpdateRequest {
	return PostUpdateRequest{Title: p.Title, Body: p.Body}
}

// Recipe represents a recipe with a free-form ingredient list.
type Recipe struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Ingredients Ingredients `json:"ingredients"`
}

// RecordID returns the recipe id.
func (r Recipe) RecordID() int64 { return r.ID }

// WithID returns a copy of the recipe carrying id.
func (r Recipe) WithID(id int64) Recipe {
	r.ID = id
	return r
}

// Validate requires a non-blank name and ingredient list.
func (r Recipe) Validate() error {
	return required(r.Name, string(r.Ingredients))
}

// RecipeRequest is the payload for both recipe create and update.
type RecipeRequest struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
}

// Request builds the create/update payload for r.
func (r Recipe) Request() RecipeRequest {
	return RecipeRequest{Name: r.Name, Ingredients: string(r.Ingredients)}
}

// Ingredients is a recipe's ingredient list kept as a single string.
// The live API returns an array of strings; both forms decode.
type Ingredients string

// UnmarshalJSON accepts either a JSON string or an array of strings,
// joining array elements with ", ".
func (in *Ingredients) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*in = Ingredients(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*in = Ingredients(strings.Join(list, ", "))
	return nil
}

// Todo represents a todo item.
type Todo struct {
	ID        int64  `json:"id"`
	Text      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int64  `json:"userId,omitempty"`
}

// RecordID returns the todo id.
func (t Todo) RecordID() int64 { return t.ID }

// WithID returns a copy of the todo carrying id.
func (t Todo) WithID(id int64) Todo {
	t.ID = id
	return t
}

// Validate requires non-blank todo text.
func (t Todo) Validate() error {
	return required(t.Text)
}

// TodoCreateRequest is the payload for POST todos/add.
type TodoCreateRequest struct {
	Text      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int64  `json:"userId"`
}

// TodoUpdateRequest is the payload for PUT todos/{id}.
type TodoUpdateRequest struct {
	Text string `json:"todo"`
}

// TodoToggleRequest is the payload for PATCH todos/{id}.
type TodoToggleRequest struct {
	Completed bool `json:"completed"`
}

// CreateRequest builds the create payload for t.
func (t Todo) CreateRequest() TodoCreateRequest {
	return TodoCreateRequest{Text: t.Text, Completed: false, UserID: defaultUserID}
}

// UpdateRequest builds the update payload for t.
func (t Todo) UpdateRequest() TodoUpdateRequest {
	return TodoUpdateRequest{Text: t.Text}
}

func required(fields ...string) error {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return ErrMissingField
		}
	}
	return nil
}
