package sqlsink

import "strconv"

// PlaceholderStyle selects the parameter placeholder syntax of the target
// database.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses "?" (SQLite, MySQL).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses "$1", "$2", ... (PostgreSQL).
	PlaceholderDollar
)

// builder accumulates query arguments and hands out matching placeholders.
type builder struct {
	style PlaceholderStyle
	args  []any
}

func newBuilder(style PlaceholderStyle) *builder {
	return &builder{style: style}
}

// arg registers v as the next query argument and returns its placeholder.
func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	if b.style == PlaceholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}
