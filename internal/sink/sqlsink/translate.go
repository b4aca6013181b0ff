// Package sqlsink folds a compiled search into a SQL WHERE clause with bound
// arguments. It is the SQL filter sink: the generated clause must select
// exactly the rows the in-memory evaluator would match.
//
// The same translation serves SQLite ("?" placeholders) and PostgreSQL
// ("$n" placeholders); only the placeholder style differs.
package sqlsink

import (
	"fmt"
	"regexp"
	"strings"

	"searchquery/internal/searchlang"
)

// Query is a translated search: a WHERE clause fragment with its bound
// arguments, plus an ORDER BY fragment. Where is empty for a match-all
// search, OrderBy is empty when the search carries no ordering.
type Query struct {
	Where   string
	Args    []any
	OrderBy string
}

// identRe restricts column identifiers to a safe subset. Columns come from
// the field registry, not from user input, but the registry is often loaded
// from a config file.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Translate folds a compiled search into a Query for the given placeholder
// style.
func Translate(s *searchlang.Search, style PlaceholderStyle) (Query, error) {
	var q Query
	b := newBuilder(style)

	if s.Root != nil {
		where, err := translateNode(s.Root, b)
		if err != nil {
			return Query{}, err
		}
		q.Where = where
		q.Args = b.args
	}

	if len(s.Order) > 0 {
		parts := make([]string, len(s.Order))
		for i, k := range s.Order {
			col, err := column(k.Field)
			if err != nil {
				return Query{}, err
			}
			if k.Desc {
				col += " DESC"
			}
			parts[i] = col
		}
		q.OrderBy = strings.Join(parts, ", ")
	}

	return q, nil
}

// SelectSQL assembles a full SELECT statement from a translated query.
// Columns must already be validated identifiers or "*".
func SelectSQL(table string, q Query) (string, error) {
	if !identRe.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	sql := "SELECT * FROM " + table
	if q.Where != "" {
		sql += " WHERE " + q.Where
	}
	if q.OrderBy != "" {
		sql += " ORDER BY " + q.OrderBy
	}
	return sql, nil
}

func translateNode(n searchlang.Node, b *builder) (string, error) {
	switch node := n.(type) {
	case *searchlang.LeafNode:
		return translateLeaf(node, b)

	case *searchlang.AndNode:
		return translateJoin(node.Terms, " AND ", b)

	case *searchlang.OrNode:
		return translateJoin(node.Terms, " OR ", b)

	case *searchlang.NotNode:
		inner, err := translateNode(node.Term, b)
		if err != nil {
			return "", err
		}
		return negate(inner), nil

	default:
		return "", fmt.Errorf("unsupported node type %T", n)
	}
}

func translateJoin(terms []searchlang.Node, sep string, b *builder) (string, error) {
	parts := make([]string, len(terms))
	for i, t := range terms {
		s, err := translateNode(t, b)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// translateLeaf ORs the leaf's field alternatives and applies the negation
// flag around the combined clause. An empty alternative list matches no rows.
func translateLeaf(l *searchlang.LeafNode, b *builder) (string, error) {
	if len(l.Alts) == 0 {
		if l.Negated {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}

	parts := make([]string, len(l.Alts))
	for i, alt := range l.Alts {
		col, err := column(alt.Field)
		if err != nil {
			return "", err
		}
		s, err := translatePredicate(alt.Pred, col, b)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}

	clause := parts[0]
	if len(parts) > 1 {
		clause = "(" + strings.Join(parts, " OR ") + ")"
	}
	if l.Negated {
		clause = negate(clause)
	}
	return clause, nil
}

// negate inverts a clause under SQL three-valued logic the way the in-memory
// evaluator does: a NULL column does not match the inner predicate, so its
// row survives the negation. Bare NOT would drop it instead.
func negate(clause string) string {
	return "NOT COALESCE(" + clause + ", FALSE)"
}

func translatePredicate(p searchlang.Predicate, col string, b *builder) (string, error) {
	switch pred := p.(type) {
	case searchlang.StringPredicate:
		if pred.Exact {
			return fmt.Sprintf("LOWER(%s) = %s", col, b.arg(pred.Value)), nil
		}
		pat := "%" + escapeLike(pred.Value) + "%"
		return fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, b.arg(pat)), nil

	case searchlang.NumberPredicate:
		return fmt.Sprintf("%s %s %s", col, pred.Op, b.arg(pred.Value)), nil

	case searchlang.NumberContainsPredicate:
		// Clauses must be built in rendering order: each b.arg call binds
		// positionally.
		if pred.Signed {
			return fmt.Sprintf("(%s <= %s AND %s > %s)",
				col, b.arg(-pred.Value), col, b.arg(-pred.Value-pred.Variance)), nil
		}
		pos := fmt.Sprintf("(%s >= %s AND %s < %s)",
			col, b.arg(pred.Value), col, b.arg(pred.Value+pred.Variance))
		neg := fmt.Sprintf("(%s <= %s AND %s > %s)",
			col, b.arg(-pred.Value), col, b.arg(-pred.Value-pred.Variance))
		return "(" + pos + " OR " + neg + ")", nil

	case searchlang.DatePredicate:
		return translateDate(pred, col, b), nil

	case searchlang.BoolPredicate:
		return fmt.Sprintf("%s = %s", col, b.arg(pred.Value)), nil

	case searchlang.NullPredicate:
		return col + " IS NULL", nil

	default:
		return "", fmt.Errorf("unsupported predicate type %T", p)
	}
}

// translateDate renders span and point comparisons the way the in-memory
// evaluator resolves them: a span equals means within [Min, Max), a span '>'
// means at or after Max.
func translateDate(p searchlang.DatePredicate, col string, b *builder) string {
	if p.Value.IsSpan {
		switch p.Op {
		case searchlang.OpEq:
			return fmt.Sprintf("(%s >= %s AND %s < %s)",
				col, b.arg(p.Value.Min), col, b.arg(p.Value.Max))
		case searchlang.OpGt:
			return fmt.Sprintf("%s >= %s", col, b.arg(p.Value.Max))
		case searchlang.OpGe:
			return fmt.Sprintf("%s >= %s", col, b.arg(p.Value.Min))
		case searchlang.OpLt:
			return fmt.Sprintf("%s < %s", col, b.arg(p.Value.Min))
		default: // OpLe
			return fmt.Sprintf("%s < %s", col, b.arg(p.Value.Max))
		}
	}
	return fmt.Sprintf("%s %s %s", col, p.Op, b.arg(p.Value.Point))
}

func column(f *searchlang.Field) (string, error) {
	if !identRe.MatchString(f.Column) {
		return "", fmt.Errorf("invalid column identifier %q for field %q", f.Column, f.Key)
	}
	return f.Column, nil
}

// escapeLike escapes LIKE wildcards in a literal search value.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
