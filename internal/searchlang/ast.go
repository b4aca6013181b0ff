// Package searchlang compiles human-friendly search strings into typed
// boolean predicate trees.
//
// A search string like
//
//	age>30 date>"2 weeks ago" name=Michael
//
// is tokenized, parsed into a boolean expression tree (implicit AND on
// adjacency, explicit AND/OR/NOT, '-' negation, parentheses), and each leaf
// term is resolved against a caller-supplied field registry into a typed
// predicate (string containment/equality, numeric comparison, date range
// resolution including relative date phrases, null checks).
//
// This package is a compilation layer only. It MUST NOT:
//   - Execute queries against storage
//   - Know about any particular backend's filter API
//   - Retain state between compilations
//
// The compiled tree is handed to a filter sink (see internal/sink) or matched
// in memory via Search.Match.
package searchlang

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator attached to a column term.
type Operator string

const (
	OpContains Operator = ":"  // substring / fuzzy match
	OpEq       Operator = "="  // exact match
	OpNe       Operator = "!=" // negated exact match
	OpGt       Operator = ">"
	OpGe       Operator = ">="
	OpLt       Operator = "<"
	OpLe       Operator = "<="
)

// Expr is the interface for all AST nodes.
// The marker method prevents external types from implementing Expr.
type Expr interface {
	expr()
	// String returns a human-readable representation of the expression.
	String() string
}

// AndExpr represents logical AND of multiple expressions.
// Invariant: len(Terms) >= 2
type AndExpr struct {
	Terms []Expr
}

func (AndExpr) expr() {}

func (a *AndExpr) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// OrExpr represents logical OR of multiple expressions.
// Invariant: len(Terms) >= 2
type OrExpr struct {
	Terms []Expr
}

func (OrExpr) expr() {}

func (o *OrExpr) String() string {
	parts := make([]string, len(o.Terms))
	for i, t := range o.Terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// NotExpr represents logical negation of a subtree.
// Negation applied directly to a term folds into TermExpr.Negated instead.
type NotExpr struct {
	Term Expr
}

func (NotExpr) expr() {}

func (n *NotExpr) String() string {
	return "NOT " + n.Term.String()
}

// TermExpr is a leaf search term.
//
// A column term (age>30) carries the resolved Field and Operator. A free-text
// term (no column named) has Field == nil and is resolved at compile time
// against the registry's generic fields, OR'd together.
type TermExpr struct {
	Field   *Field   // nil for free-text terms
	Op      Operator // OpContains for free-text terms
	Value   string   // raw value text (quotes stripped)
	Quoted  bool     // value was a quoted phrase; match as one literal unit
	Negated bool     // '-' or NOT applied directly to this term
	Pos     int      // byte offset of the term in the input
}

func (TermExpr) expr() {}

func (t *TermExpr) String() string {
	var sb strings.Builder
	if t.Negated {
		sb.WriteString("-")
	}
	if t.Field != nil {
		fmt.Fprintf(&sb, "%s%s", t.Field.Key, t.Op)
	}
	if t.Quoted || strings.ContainsAny(t.Value, " \t") {
		fmt.Fprintf(&sb, "%q", t.Value)
	} else {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// flattenAnd combines two expressions into an AndExpr, flattening nested AndExprs.
func flattenAnd(left, right Expr) Expr {
	var terms []Expr

	if a, ok := left.(*AndExpr); ok {
		terms = append(terms, a.Terms...)
	} else {
		terms = append(terms, left)
	}

	if a, ok := right.(*AndExpr); ok {
		terms = append(terms, a.Terms...)
	} else {
		terms = append(terms, right)
	}

	return &AndExpr{Terms: terms}
}

// flattenOr combines two expressions into an OrExpr, flattening nested OrExprs.
func flattenOr(left, right Expr) Expr {
	var terms []Expr

	if o, ok := left.(*OrExpr); ok {
		terms = append(terms, o.Terms...)
	} else {
		terms = append(terms, left)
	}

	if o, ok := right.(*OrExpr); ok {
		terms = append(terms, o.Terms...)
	} else {
		terms = append(terms, right)
	}

	return &OrExpr{Terms: terms}
}
