package demoapi

import (
	"time"
)

// Item is one stored record of a resource. Fields holds the record's JSON
// attributes without the id.
type Item struct {
	ID           int64          `json:"id"`
	Resource     string         `json:"resource"`
	Fields       map[string]any `json:"fields"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastModified time.Time      `json:"lastModified"`
}

// Document renders the item the way the API returns it: a flat object with id.
func (it *Item) Document() map[string]any {
	doc := make(map[string]any, len(it.Fields)+1)
	for k, v := range it.Fields {
		doc[k] = v
	}
	doc["id"] = it.ID
	return doc
}

// Merge overwrites item fields with those in patch. The id is not writable.
func (it *Item) Merge(patch map[string]any) {
	if it.Fields == nil {
		it.Fields = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		it.Fields[k] = v
	}
}

// ListResponse is the payload of GET /{resource}. The collection itself is
// keyed by the resource name, so the response is assembled as a map.
type ListResponse struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

func (lr ListResponse) body(resource string, docs []map[string]any) map[string]any {
	return map[string]any{
		resource: docs,
		"total":  lr.Total,
		"skip":   lr.Skip,
		"limit":  lr.Limit,
	}
}
