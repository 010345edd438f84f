package sortspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFileSort(t *testing.T) {
	assert.Equal(t, "filename", ResolveFileSort("filename"))
	assert.Equal(t, "uploaded_at", ResolveFileSort("uploaded_at"))
	assert.Equal(t, "uploaded_at", ResolveFileSort("uploadDate"))
	assert.Equal(t, "size", ResolveFileSort("size"))
	assert.Equal(t, "size", ResolveFileSort("length"))
}

func TestResolveFileSortUnknownFallsBack(t *testing.T) {
	// invalid input degrades to the default, it never errors
	assert.Equal(t, "uploaded_at", ResolveFileSort(""))
	assert.Equal(t, "uploaded_at", ResolveFileSort("md5"))
	assert.Equal(t, "uploaded_at", ResolveFileSort("; DROP TABLE files;--"))
}

func TestResolveUserSort(t *testing.T) {
	assert.Equal(t, "username", ResolveUserSort("username"))
	assert.Equal(t, "joined_at", ResolveUserSort("joined_at"))
	assert.Equal(t, "joined_at", ResolveUserSort("hashed_password"))
	assert.Equal(t, "joined_at", ResolveUserSort(""))
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "DESC", Direction(true))
	assert.Equal(t, "ASC", Direction(false))
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name                 string
		offset, limit        int
		wantOffset, wantLimit int
	}{
		{"defaults", 0, 0, 0, MaxPageSize},
		{"in range", 10, 20, 10, 20},
		{"negative offset", -5, 20, 0, 20},
		{"offset over cap", 5000, 20, MaxPageSize, 20},
		{"limit over cap", 0, 5000, 0, MaxPageSize},
		{"negative limit", 0, -1, 0, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOffset, gotLimit := ClampPage(tt.offset, tt.limit)
			assert.Equal(t, tt.wantOffset, gotOffset)
			assert.Equal(t, tt.wantLimit, gotLimit)
		})
	}
}

func TestClampSearchLimit(t *testing.T) {
	assert.Equal(t, DefaultSearchLimit, ClampSearchLimit(0))
	assert.Equal(t, DefaultSearchLimit, ClampSearchLimit(-3))
	assert.Equal(t, 5, ClampSearchLimit(5))
	assert.Equal(t, MaxSearchLimit, ClampSearchLimit(31))
	assert.Equal(t, MaxSearchLimit, ClampSearchLimit(MaxSearchLimit))
}
