package searchlang

import (
	"errors"
	"testing"
)

// testRegistry returns a registry shared by most parser and resolver tests.
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		Field{Key: "name", Type: FieldString, Generic: true, Desc: "Full name"},
		Field{Key: "city", Type: FieldString, Generic: true},
		Field{Key: "age", Type: FieldNumber},
		Field{Key: "price", Type: FieldNumber, Generic: true},
		Field{Key: "date", Column: "created_at", Type: FieldDate},
		Field{Key: "active", Type: FieldBool},
		Field{Key: "error", Column: "error_message", Type: FieldString},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func mustParse(t *testing.T, reg *Registry, input string) Expr {
	t.Helper()
	expr, _, err := Parse(input, reg)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	return expr
}

func TestParseColumnTerm(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		input string
		key   string
		op    Operator
		value string
	}{
		{"age>30", "age", OpGt, "30"},
		{"age >= 18", "age", OpGe, "18"},
		{"name=Michael", "name", OpEq, "Michael"},
		{"name:mich", "name", OpContains, "mich"},
		{"name!=bob", "name", OpNe, "bob"},
		{"AGE<65", "age", OpLt, "65"}, // keys are case-insensitive
		{"age>-5", "age", OpGt, "-5"}, // negative literal glued to the operator
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := mustParse(t, reg, tt.input)
			term, ok := expr.(*TermExpr)
			if !ok {
				t.Fatalf("Parse(%q) = %T, want *TermExpr", tt.input, expr)
			}
			if term.Field == nil || term.Field.Key != tt.key {
				t.Fatalf("Parse(%q) field = %v, want %q", tt.input, term.Field, tt.key)
			}
			if term.Op != tt.op || term.Value != tt.value {
				t.Errorf("Parse(%q) = %s%s%q, want %s%s%q",
					tt.input, term.Field.Key, term.Op, term.Value, tt.key, tt.op, tt.value)
			}
		})
	}
}

func TestParseFreeText(t *testing.T) {
	reg := testRegistry(t)

	expr := mustParse(t, reg, "michael")
	term, ok := expr.(*TermExpr)
	if !ok {
		t.Fatalf("got %T, want *TermExpr", expr)
	}
	if term.Field != nil {
		t.Errorf("free-text term should have nil field, got %v", term.Field)
	}
	if term.Op != OpContains || term.Value != "michael" {
		t.Errorf("got %s%q, want :%q", term.Op, term.Value, "michael")
	}
}

func TestParseQuotedPhraseIsOneLeaf(t *testing.T) {
	reg := testRegistry(t)

	expr := mustParse(t, reg, `"john doe"`)
	term, ok := expr.(*TermExpr)
	if !ok {
		t.Fatalf(`Parse("john doe") = %T, want a single *TermExpr`, expr)
	}
	if !term.Quoted || term.Value != "john doe" {
		t.Errorf("got quoted=%v value=%q, want quoted %q", term.Quoted, term.Value, "john doe")
	}
}

func TestParseAdjacencyImpliesAnd(t *testing.T) {
	reg := testRegistry(t)

	implicit := mustParse(t, reg, "age>30 name=Michael")
	explicit := mustParse(t, reg, "age>30 and name=Michael")

	if implicit.String() != explicit.String() {
		t.Errorf("implicit AND %q != explicit AND %q", implicit.String(), explicit.String())
	}
	and, ok := implicit.(*AndExpr)
	if !ok || len(and.Terms) != 2 {
		t.Fatalf("got %s, want 2-term AndExpr", implicit)
	}
}

func TestParsePrecedence(t *testing.T) {
	reg := testRegistry(t)

	t.Run("or binds looser than and", func(t *testing.T) {
		expr := mustParse(t, reg, "a or b and c")
		or, ok := expr.(*OrExpr)
		if !ok || len(or.Terms) != 2 {
			t.Fatalf("got %s, want OrExpr(a, And(b,c))", expr)
		}
		if _, ok := or.Terms[0].(*TermExpr); !ok {
			t.Errorf("left of OR = %T, want *TermExpr", or.Terms[0])
		}
		and, ok := or.Terms[1].(*AndExpr)
		if !ok || len(and.Terms) != 2 {
			t.Errorf("right of OR = %s, want 2-term AndExpr", or.Terms[1])
		}
	})

	t.Run("not binds tighter than and", func(t *testing.T) {
		expr := mustParse(t, reg, "not a and b")
		and, ok := expr.(*AndExpr)
		if !ok || len(and.Terms) != 2 {
			t.Fatalf("got %s, want AndExpr(Not(a), b)", expr)
		}
		left, ok := and.Terms[0].(*TermExpr)
		if !ok || !left.Negated {
			t.Errorf("left of AND = %s, want negated term", and.Terms[0])
		}
		right, ok := and.Terms[1].(*TermExpr)
		if !ok || right.Negated {
			t.Errorf("right of AND = %s, want plain term", and.Terms[1])
		}
	})

	t.Run("parens override", func(t *testing.T) {
		expr := mustParse(t, reg, "(a or b) and c")
		and, ok := expr.(*AndExpr)
		if !ok || len(and.Terms) != 2 {
			t.Fatalf("got %s, want AndExpr", expr)
		}
		if _, ok := and.Terms[0].(*OrExpr); !ok {
			t.Errorf("left of AND = %T, want *OrExpr", and.Terms[0])
		}
	})
}

func TestParseNegationDuality(t *testing.T) {
	reg := testRegistry(t)

	dash := mustParse(t, reg, "-name:bob")
	keyword := mustParse(t, reg, "not name:bob")

	dt, ok1 := dash.(*TermExpr)
	kt, ok2 := keyword.(*TermExpr)
	if !ok1 || !ok2 {
		t.Fatalf("got %T and %T, want *TermExpr twice", dash, keyword)
	}
	if !dt.Negated || !kt.Negated {
		t.Errorf("negated flags = %v, %v, want true, true", dt.Negated, kt.Negated)
	}
	if dt.String() != kt.String() {
		t.Errorf("-term %q != not term %q", dt.String(), kt.String())
	}

	plain := mustParse(t, reg, "name:bob").(*TermExpr)
	if plain.Negated {
		t.Error("plain term should not be negated")
	}
	if plain.Field != dt.Field || plain.Op != dt.Op || plain.Value != dt.Value {
		t.Error("negated term should differ from plain term only in the negated flag")
	}
}

func TestParseNegatedGroup(t *testing.T) {
	reg := testRegistry(t)

	expr := mustParse(t, reg, "-(a or b)")
	not, ok := expr.(*NotExpr)
	if !ok {
		t.Fatalf("got %T, want *NotExpr", expr)
	}
	if _, ok := not.Term.(*OrExpr); !ok {
		t.Errorf("negated child = %T, want *OrExpr", not.Term)
	}
}

func TestParseUnknownKeyFallsBackToLiteral(t *testing.T) {
	reg := testRegistry(t)

	expr := mustParse(t, reg, "cost:$50")
	term, ok := expr.(*TermExpr)
	if !ok {
		t.Fatalf("got %T, want *TermExpr", expr)
	}
	if term.Field != nil {
		t.Errorf("fallback term should have nil field, got %v", term.Field)
	}
	if term.Op != OpContains || term.Value != "cost:$50" {
		t.Errorf("got %s%q, want :%q", term.Op, term.Value, "cost:$50")
	}
}

func TestParseStrictUnknownKey(t *testing.T) {
	reg := testRegistry(t)
	reg.Strict = true

	_, _, err := Parse("cost:50", reg)
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Key != "cost" {
		t.Errorf("expected CompileError for key cost, got %v", err)
	}
}

func TestParsePartialKeys(t *testing.T) {
	reg := testRegistry(t)
	reg.AllowPartialKeys = true

	expr := mustParse(t, reg, "pri>10")
	term := expr.(*TermExpr)
	if term.Field == nil || term.Field.Key != "price" {
		t.Fatalf("partial key pri did not resolve to price: %v", term.Field)
	}

	// "a" is a substring of several keys.
	_, _, err := Parse("a=1", reg)
	if !errors.Is(err, ErrAmbiguousField) {
		t.Fatalf("expected ErrAmbiguousField, got %v", err)
	}
}

func TestParseInList(t *testing.T) {
	reg := testRegistry(t)

	expr := mustParse(t, reg, "city in (boston, chicago)")
	or, ok := expr.(*OrExpr)
	if !ok || len(or.Terms) != 2 {
		t.Fatalf("got %s, want 2-term OrExpr", expr)
	}
	for i, want := range []string{"boston", "chicago"} {
		term, ok := or.Terms[i].(*TermExpr)
		if !ok || term.Op != OpEq || term.Value != want {
			t.Errorf("term %d = %s, want city=%s", i, or.Terms[i], want)
		}
	}

	notIn := mustParse(t, reg, "city not in (boston)")
	not, ok := notIn.(*NotExpr)
	if !ok {
		t.Fatalf("got %T, want *NotExpr", notIn)
	}
	term, ok := not.Term.(*TermExpr)
	if !ok || term.Value != "boston" {
		t.Errorf("NOT IN child = %s, want city=boston", not.Term)
	}
}

func TestParseOrderBy(t *testing.T) {
	reg := testRegistry(t)

	_, order, err := Parse("age>30 order by -age, name", reg)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("got %d order keys, want 2", len(order))
	}
	if order[0].Field.Key != "age" || !order[0].Desc {
		t.Errorf("order[0] = %+v, want -age", order[0])
	}
	if order[1].Field.Key != "name" || order[1].Desc {
		t.Errorf("order[1] = %+v, want name", order[1])
	}

	// Unknown order key is an error.
	_, _, err = Parse("age>30 order by bogus", reg)
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		input string
		want  error
	}{
		{`"unterminated`, ErrUnterminatedString},
		{"(a and b", ErrUnmatchedParen},
		{"a and b)", ErrUnmatchedParen},
		{"a and", ErrUnexpectedEOF},
		{"or a", ErrUnexpectedToken},
		{"not", ErrUnexpectedEOF},
		{"not and a", ErrUnexpectedToken},
		{"()", ErrEmptyQuery},
		{"", ErrEmptyQuery},
		{"age>", ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, _, err := Parse(tt.input, reg)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestParseValueKeywords(t *testing.T) {
	reg := testRegistry(t)

	// Boolean keywords are plain words in value position.
	expr := mustParse(t, reg, "name=and")
	term := expr.(*TermExpr)
	if term.Value != "and" {
		t.Errorf("got value %q, want %q", term.Value, "and")
	}
}
