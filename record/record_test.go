package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     interface{ Validate() error }
		wantErr bool
	}{
		{"post ok", Post{Title: "t", Body: "b"}, false},
		{"post blank title", Post{Title: "  ", Body: "b"}, true},
		{"post empty body", Post{Title: "t"}, true},
		{"recipe ok", Recipe{Name: "soup", Ingredients: "water"}, false},
		{"recipe blank ingredients", Recipe{Name: "soup", Ingredients: "\t"}, true},
		{"todo ok", Todo{Text: "Buy milk"}, false},
		{"todo blank", Todo{Text: " \n "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingField)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIngredientsDecodesStringAndArray(t *testing.T) {
	var fromString Recipe
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"a","ingredients":"salt, pepper"}`), &fromString))
	assert.Equal(t, Ingredients("salt, pepper"), fromString.Ingredients)

	var fromArray Recipe
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"name":"b","ingredients":["flour","eggs","milk"]}`), &fromArray))
	assert.Equal(t, Ingredients("flour, eggs, milk"), fromArray.Ingredients)

	var bad Recipe
	assert.Error(t, json.Unmarshal([]byte(`{"ingredients":42}`), &bad))
}

func TestRequestsCarryDefaults(t *testing.T) {
	p := Post{ID: 9, Title: "t", Body: "b"}
	assert.Equal(t, PostCreateRequest{Title: "t", Body: "b", UserID: 1}, p.CreateRequest())

	td := Todo{Text: "x", Completed: true}
	body, err := json.Marshal(td.CreateRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"todo":"x","completed":false,"userId":1}`, string(body))

	assert.Equal(t, Post{ID: 42, Title: "t", Body: "b"}, p.WithID(42))
}
