package remote

import (
	"context"
)

// Endpoint names the paths of one resource on the API.
type Endpoint struct {
	Collection string // JSON key holding the list, e.g. "posts"
	ListPath   string // e.g. "posts"
	CreatePath string // e.g. "posts/add"
	ItemPath   string // prefix for /{id}, e.g. "posts"
}

// Resource is a typed view of one API resource.
type Resource[R any] struct {
	client     *Client
	endpoint   Endpoint
	createBody func(R) any
	updateBody func(R) any
}

// NewResource binds client to endpoint. createBody and updateBody build the
// wire payloads for create and update from a record.
func NewResource[R any](client *Client, endpoint Endpoint, createBody, updateBody func(R) any) *Resource[R] {
	return &Resource[R]{
		client:     client,
		endpoint:   endpoint,
		createBody: createBody,
		updateBody: updateBody,
	}
}

// Name returns the collection name.
func (r *Resource[R]) Name() string { return r.endpoint.Collection }

// List fetches the whole collection.
func (r *Resource[R]) List(ctx context.Context) ([]R, error) {
	var out []R
	if err := r.client.Fetch(ctx, r.endpoint.ListPath, r.endpoint.Collection, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create sends fields and returns the record as the server stored it.
func (r *Resource[R]) Create(ctx context.Context, fields R) (R, error) {
	var out R
	err := r.client.Create(ctx, r.endpoint.CreatePath, r.createBody(fields), &out)
	return out, err
}

// Update sends the editable fields of rec for id and returns the server echo.
func (r *Resource[R]) Update(ctx context.Context, id int64, rec R) (R, error) {
	var out R
	err := r.client.Update(ctx, r.endpoint.ItemPath, id, r.updateBody(rec), &out)
	return out, err
}

// Patch sends a partial body for id and returns the server echo.
func (r *Resource[R]) Patch(ctx context.Context, id int64, partial any) (R, error) {
	var out R
	err := r.client.Patch(ctx, r.endpoint.ItemPath, id, partial, &out)
	return out, err
}

// Delete removes id.
func (r *Resource[R]) Delete(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, r.endpoint.ItemPath, id)
}
