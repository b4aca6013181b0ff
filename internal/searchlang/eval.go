package searchlang

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one row of caller data, keyed by backing column identifier.
// Values may be string, bool, any integer or float type, time.Time, or nil.
// A missing key and a nil value are both treated as null.
type Record map[string]any

// Match evaluates the compiled search against a record in memory. It is the
// reference filter sink: the SQL sinks must agree with it. A nil root
// (empty search) matches everything.
func (s *Search) Match(rec Record) bool {
	if s.Root == nil {
		return true
	}
	return matchNode(s.Root, rec)
}

func matchNode(n Node, rec Record) bool {
	switch node := n.(type) {
	case *LeafNode:
		return matchLeaf(node, rec)

	case *AndNode:
		for _, t := range node.Terms {
			if !matchNode(t, rec) {
				return false
			}
		}
		return true

	case *OrNode:
		for _, t := range node.Terms {
			if matchNode(t, rec) {
				return true
			}
		}
		return false

	case *NotNode:
		return !matchNode(node.Term, rec)

	default:
		return false
	}
}

// matchLeaf ORs the leaf's field alternatives, then applies the negation
// flag to the combined result. An empty alternative list matches nothing.
func matchLeaf(l *LeafNode, rec Record) bool {
	matched := false
	for _, alt := range l.Alts {
		if matchPredicate(alt.Pred, rec, alt.Field.Column) {
			matched = true
			break
		}
	}
	if l.Negated {
		return !matched
	}
	return matched
}

func matchPredicate(p Predicate, rec Record, column string) bool {
	v, present := rec[column]
	isNull := !present || v == nil

	if _, ok := p.(NullPredicate); ok {
		return isNull
	}
	if isNull {
		return false
	}

	switch pred := p.(type) {
	case StringPredicate:
		s := strings.ToLower(stringify(v))
		if pred.Exact {
			return s == pred.Value
		}
		return strings.Contains(s, pred.Value)

	case NumberPredicate:
		f, ok := toFloat(v)
		if !ok {
			return false
		}
		switch pred.Op {
		case OpEq:
			return f == pred.Value
		case OpGt:
			return f > pred.Value
		case OpGe:
			return f >= pred.Value
		case OpLt:
			return f < pred.Value
		case OpLe:
			return f <= pred.Value
		}
		return false

	case NumberContainsPredicate:
		f, ok := toFloat(v)
		if !ok {
			return false
		}
		return pred.Matches(f)

	case DatePredicate:
		t, ok := toTime(v, pred.location())
		if !ok {
			return false
		}
		return pred.Matches(t)

	case BoolPredicate:
		b, ok := toBool(v)
		if !ok {
			return false
		}
		return b == pred.Value

	default:
		return false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.ParseInLocation(layout, t, loc); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		return parseBoolWord(b)
	case int:
		return b != 0, true
	case int64:
		return b != 0, true
	case float64:
		return b != 0, true
	default:
		return false, false
	}
}
