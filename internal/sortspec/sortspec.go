// Package sortspec maps caller-supplied sort keys and pagination values
// to something safe to interpolate into a query. Callers can send anything;
// unknown sort keys fall back to a default instead of failing the request,
// and offsets/limits are clamped to hard caps.
package sortspec

const (
	// MaxPageSize caps offset and limit on list operations.
	MaxPageSize = 100
	// MaxSearchLimit caps the result size of regex searches.
	MaxSearchLimit = 30
	// DefaultSearchLimit applies when a search request omits the limit.
	DefaultSearchLimit = 10
)

// fileSortFields maps public sort keys to columns of the files table.
// The legacy key names (uploadDate, length) are kept for older clients.
var fileSortFields = map[string]string{
	"filename":   "filename",
	"uploaded_at": "uploaded_at",
	"uploadDate": "uploaded_at",
	"size":       "size",
	"length":     "size",
}

// userSortFields maps public sort keys to columns of the users table.
var userSortFields = map[string]string{
	"username":  "username",
	"email":     "email",
	"role":      "role",
	"joined_at": "joined_at",
	"user_id":   "user_id",
}

// ResolveFileSort returns the files column for a public sort key,
// defaulting to the upload timestamp for anything it does not know.
func ResolveFileSort(key string) string {
	if col, ok := fileSortFields[key]; ok {
		return col
	}
	return "uploaded_at"
}

// ResolveUserSort returns the users column for a public sort key,
// defaulting to the join timestamp.
func ResolveUserSort(key string) string {
	if col, ok := userSortFields[key]; ok {
		return col
	}
	return "joined_at"
}

// Direction renders a sort direction for SQL.
func Direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

// ClampPage bounds offset and limit to [0, MaxPageSize]. A non-positive
// limit falls back to the maximum page size.
func ClampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > MaxPageSize {
		offset = MaxPageSize
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit
}

// ClampSearchLimit bounds a search limit to [1, MaxSearchLimit], defaulting
// when unset.
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}
