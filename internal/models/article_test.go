package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSearchField(t *testing.T) {
	tests := []struct {
		input  string
		want   SearchField
		wantOK bool
	}{
		{input: "title", want: SearchByTitle, wantOK: true},
		{input: "doi", want: SearchByDOI, wantOK: true},
		{input: " DOI ", want: SearchByDOI, wantOK: true},
		{input: "Title", want: SearchByTitle, wantOK: true},
		{input: "abstract", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSearchField(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArticle_OwnedBy(t *testing.T) {
	a := &Article{ID: "a1", OwnerID: "user-1"}

	assert.True(t, a.OwnedBy("user-1"))
	assert.False(t, a.OwnedBy("user-2"))
	assert.False(t, a.OwnedBy(""))

	var missing *Article
	assert.False(t, missing.OwnedBy("user-1"))
}
