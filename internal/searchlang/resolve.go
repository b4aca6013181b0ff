package searchlang

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Predicate is a resolved, typed leaf condition. The marker method keeps the
// set closed: one variant per field type plus the null sentinel.
type Predicate interface {
	pred()
	String() string
}

// StringPredicate matches string columns case-insensitively.
// Value is already lowercased; the sink lowercases the stored side.
type StringPredicate struct {
	Exact bool   // '=' exact match; otherwise ':' substring containment
	Value string // normalized (lowercase) search value
}

func (StringPredicate) pred() {}

func (p StringPredicate) String() string {
	if p.Exact {
		return fmt.Sprintf("str=%q", p.Value)
	}
	return fmt.Sprintf("str:%q", p.Value)
}

// NumberPredicate is a direct arithmetic comparison on a numeric column.
type NumberPredicate struct {
	Op    Operator // one of = > >= < <=
	Value float64
}

func (NumberPredicate) pred() {}

func (p NumberPredicate) String() string {
	return fmt.Sprintf("num%s%v", p.Op, p.Value)
}

// NumberContainsPredicate implements the ':' operator on numeric columns:
// match any stored value whose decimal rendering begins with the typed
// literal. "60" matches [60, 61); "60.4" matches [60.4, 60.5). An unsigned
// literal also matches the mirrored negative range (-61, -60]; an explicitly
// negative literal matches only negatives.
type NumberContainsPredicate struct {
	Value    float64 // absolute value of the literal
	Variance float64 // half-open range width: 10^-sigdigs
	Signed   bool    // literal carried an explicit '-'
}

func (NumberContainsPredicate) pred() {}

func (p NumberContainsPredicate) String() string {
	if p.Signed {
		return fmt.Sprintf("num:(-%v-%v, -%v]", p.Value, p.Variance, p.Value)
	}
	return fmt.Sprintf("num:[%v, %v)", p.Value, p.Value+p.Variance)
}

// Matches reports whether a stored value falls in the predicate's range.
func (p NumberContainsPredicate) Matches(v float64) bool {
	neg := v <= -p.Value && v > -p.Value-p.Variance
	if p.Signed {
		return neg
	}
	return neg || (v >= p.Value && v < p.Value+p.Variance)
}

// DatePredicate compares a date column against a resolved phrase. Span
// phrases reconcile with point operators as follows: '='/':' means within
// [Min, Max); '>' means at or after Max (strictly after the period); '<'
// means before Min; '>='/'<=' use Min/Max as the boundary.
type DatePredicate struct {
	Op    Operator // ':' is normalized to '='
	Value DateValue
}

func (DatePredicate) pred() {}

func (p DatePredicate) String() string {
	return fmt.Sprintf("date%s%s", p.Op, p.Value)
}

// location returns the zone the predicate's boundaries were resolved in.
// String-valued record dates without a zone are interpreted there.
func (p DatePredicate) location() *time.Location {
	if p.Value.IsSpan {
		return p.Value.Min.Location()
	}
	return p.Value.Point.Location()
}

// Matches reports whether a stored instant satisfies the predicate.
func (p DatePredicate) Matches(t time.Time) bool {
	if p.Value.IsSpan {
		min, max := p.Value.Min, p.Value.Max
		switch p.Op {
		case OpEq:
			return !t.Before(min) && t.Before(max)
		case OpGt:
			return !t.Before(max)
		case OpGe:
			return !t.Before(min)
		case OpLt:
			return t.Before(min)
		case OpLe:
			return t.Before(max)
		}
		return false
	}

	pt := p.Value.Point
	switch p.Op {
	case OpEq:
		return t.Equal(pt)
	case OpGt:
		return t.After(pt)
	case OpGe:
		return !t.Before(pt)
	case OpLt:
		return t.Before(pt)
	case OpLe:
		return !t.After(pt)
	}
	return false
}

// BoolPredicate matches boolean columns.
type BoolPredicate struct {
	Value bool
}

func (BoolPredicate) pred() {}

func (p BoolPredicate) String() string {
	return fmt.Sprintf("bool=%v", p.Value)
}

// NullPredicate is the sentinel "field value is absent/null" condition,
// produced when the raw value is "null" or "none". Negation at the leaf
// turns it into an is-not-null check.
type NullPredicate struct{}

func (NullPredicate) pred() {}

func (NullPredicate) String() string { return "null" }

// Node is a node of the compiled predicate tree. The tree is immutable once
// built; sinks fold it bottom-up into their native filter representation.
type Node interface {
	node()
}

// AndNode combines child conditions with logical AND.
type AndNode struct {
	Terms []Node
}

func (AndNode) node() {}

// OrNode combines child conditions with logical OR.
type OrNode struct {
	Terms []Node
}

func (OrNode) node() {}

// NotNode inverts its child condition.
type NotNode struct {
	Term Node
}

func (NotNode) node() {}

// LeafNode is one resolved search term: a disjunction of per-field
// predicates (a single entry for column terms, one entry per generic field
// for free-text terms), optionally negated as a whole.
//
// An empty Alts slice matches nothing (e.g. a non-numeric free-text term in
// a registry whose only generic fields are numeric).
type LeafNode struct {
	Negated bool
	Alts    []FieldPredicate
}

func (LeafNode) node() {}

// FieldPredicate pairs a target field with its resolved predicate.
type FieldPredicate struct {
	Field *Field
	Pred  Predicate
}

// Search is a compiled search string: an immutable predicate tree plus
// ordering directives and metadata about the referenced search keys.
type Search struct {
	Root  Node       // nil means match-all (empty search string)
	Order []OrderKey // trailing "order by" keys, if any
	Keys  []string   // search keys referenced by the query, in first-use order
	Expr  Expr       // parse tree, useful for diagnostics
	Raw   string     // original search string

	reg *Registry
}

// Options adjusts compilation. The zero value is ready to use.
type Options struct {
	// Now anchors relative date phrases ("yesterday", "2 weeks ago").
	// Zero means the current wall-clock time.
	Now time.Time
}

// Compile tokenizes, parses, and resolves a search string against a field
// registry. Compilation is pure: the same input and options always produce a
// structurally identical Search, and no state is retained between calls.
func Compile(input string, reg *Registry, opts *Options) (*Search, error) {
	now := time.Now()
	if opts != nil && !opts.Now.IsZero() {
		now = opts.Now
	}

	s := &Search{Raw: input, reg: reg}

	if strings.TrimSpace(input) == "" {
		return s, nil
	}

	expr, order, err := Parse(input, reg)
	if err != nil {
		return nil, err
	}
	s.Expr = expr
	s.Order = order

	c := &compiler{reg: reg, now: now, seen: make(map[string]bool)}
	if expr != nil {
		root, err := c.resolve(expr)
		if err != nil {
			return nil, err
		}
		s.Root = root
	}
	for _, k := range order {
		c.reference(k.Field)
	}
	s.Keys = c.keys

	return s, nil
}

// compiler carries resolution state for one compilation.
type compiler struct {
	reg  *Registry
	now  time.Time
	seen map[string]bool
	keys []string
}

func (c *compiler) reference(f *Field) {
	if !c.seen[f.Key] {
		c.seen[f.Key] = true
		c.keys = append(c.keys, f.Key)
	}
}

// resolve walks the parse tree bottom-up, turning each leaf into typed
// predicates and each boolean node into its compiled counterpart.
func (c *compiler) resolve(expr Expr) (Node, error) {
	switch e := expr.(type) {
	case *TermExpr:
		return c.resolveTerm(e)

	case *AndExpr:
		terms := make([]Node, len(e.Terms))
		for i, t := range e.Terms {
			n, err := c.resolve(t)
			if err != nil {
				return nil, err
			}
			terms[i] = n
		}
		return &AndNode{Terms: terms}, nil

	case *OrExpr:
		terms := make([]Node, len(e.Terms))
		for i, t := range e.Terms {
			n, err := c.resolve(t)
			if err != nil {
				return nil, err
			}
			terms[i] = n
		}
		return &OrNode{Terms: terms}, nil

	case *NotExpr:
		child, err := c.resolve(e.Term)
		if err != nil {
			return nil, err
		}
		return &NotNode{Term: child}, nil

	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func (c *compiler) resolveTerm(t *TermExpr) (Node, error) {
	if t.Field != nil {
		return c.resolveColumnTerm(t)
	}
	return c.resolveFreeTextTerm(t)
}

// resolveColumnTerm resolves a column-targeted term into a single-alt leaf.
// '!=' compiles as '=' with the leaf's negation flipped, keeping the
// predicate representation and negation orthogonal.
func (c *compiler) resolveColumnTerm(t *TermExpr) (Node, error) {
	c.reference(t.Field)

	op := t.Op
	negated := t.Negated
	if op == OpNe {
		op = OpEq
		negated = !negated
	}

	pred, err := c.resolvePredicate(t.Field, op, t.Value, t.Pos)
	if err != nil {
		return nil, err
	}

	return &LeafNode{
		Negated: negated,
		Alts:    []FieldPredicate{{Field: t.Field, Pred: pred}},
	}, nil
}

// resolveFreeTextTerm expands a bare term across the registry's generic
// fields, OR'd together: string fields get a containment predicate, numeric
// fields participate only when the term parses as a number.
func (c *compiler) resolveFreeTextTerm(t *TermExpr) (Node, error) {
	generic := c.reg.GenericFields()
	if len(generic) == 0 {
		return nil, newCompileError(t.Pos, "", ErrNoGenericFields, "no free-text fields configured")
	}

	_, isNum := parseNumber(t.Value)

	var alts []FieldPredicate
	for _, f := range generic {
		switch f.Type {
		case FieldString:
			alts = append(alts, FieldPredicate{
				Field: f,
				Pred:  StringPredicate{Value: strings.ToLower(t.Value)},
			})
		case FieldNumber:
			if isNum && !t.Quoted {
				alts = append(alts, FieldPredicate{
					Field: f,
					Pred:  numberContains(t.Value),
				})
			}
		case FieldDate, FieldBool:
			// Not searched by free text.
		}
	}

	return &LeafNode{Negated: t.Negated, Alts: alts}, nil
}

// resolvePredicate builds the typed predicate for one field, operator, and
// raw value. The switch over field types is exhaustive: the type set is
// closed, one resolver per variant.
func (c *compiler) resolvePredicate(f *Field, op Operator, value string, pos int) (Predicate, error) {
	// Null check takes priority, regardless of the declared type.
	if isNullWord(value) {
		if op != OpContains && op != OpEq {
			return nil, newCompileError(pos, f.Key, ErrInvalidOperator,
				"operator %q cannot be used with null", op)
		}
		return NullPredicate{}, nil
	}

	switch f.Type {
	case FieldString:
		if op != OpContains && op != OpEq {
			return nil, newCompileError(pos, f.Key, ErrInvalidOperator,
				"operator %q is not valid for string field %q", op, f.Key)
		}
		return StringPredicate{Exact: op == OpEq, Value: strings.ToLower(value)}, nil

	case FieldNumber:
		n, ok := parseNumber(value)
		if !ok {
			return nil, newCompileError(pos, f.Key, ErrInvalidValue,
				"invalid number %q for field %q", value, f.Key)
		}
		if op == OpContains {
			return numberContains(value), nil
		}
		return NumberPredicate{Op: op, Value: n}, nil

	case FieldDate:
		dv, err := ResolveDatePhrase(value, c.now)
		if err != nil {
			return nil, newCompileError(pos, f.Key, ErrInvalidDate,
				"invalid date %q for field %q: %v", value, f.Key, err)
		}
		if op == OpContains {
			op = OpEq
		}
		return DatePredicate{Op: op, Value: dv}, nil

	case FieldBool:
		if op != OpContains && op != OpEq {
			return nil, newCompileError(pos, f.Key, ErrInvalidOperator,
				"operator %q is not valid for bool field %q", op, f.Key)
		}
		b, ok := parseBoolWord(value)
		if !ok {
			return nil, newCompileError(pos, f.Key, ErrInvalidValue,
				"invalid bool %q for field %q", value, f.Key)
		}
		return BoolPredicate{Value: b}, nil

	default:
		return nil, newCompileError(pos, f.Key, ErrInvalidValue, "unknown field type %v", f.Type)
	}
}

// numberContains builds the ':' range predicate from the literal's text,
// preserving its significant digits and sign.
func numberContains(value string) NumberContainsPredicate {
	n, _ := parseNumber(value)

	sigdigs := 0
	if i := strings.IndexByte(value, '.'); i >= 0 {
		sigdigs = len(value) - i - 1
	}

	return NumberContainsPredicate{
		Value:    math.Abs(n),
		Variance: math.Pow(10, -float64(sigdigs)),
		Signed:   strings.HasPrefix(strings.TrimSpace(value), "-"),
	}
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none":
		return true
	}
	return false
}

func parseBoolWord(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}
