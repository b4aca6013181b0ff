package searchlang

import (
	"strings"
)

// Parser parses a search string into an AST.
//
// Grammar (EBNF):
//
//	search     = or_expr [ order_by ] EOF
//	or_expr    = and_expr ( "OR" and_expr )*
//	and_expr   = unary_expr ( [ "AND" ] unary_expr )*
//	unary_expr = ( "NOT" | "-" ) unary_expr | primary
//	primary    = "(" or_expr ")" | term
//	term       = column_term | in_term | WORD
//	column_term = WORD ( ":" | "=" | "!=" | ">" | ">=" | "<" | "<=" ) value
//	in_term    = WORD [ "NOT" ] "IN" "(" value ( "," value )* ")"
//	value      = WORD | keyword-as-word | "-" WORD
//	order_by   = "order" "by" [ "-" ] WORD ( "," [ "-" ] WORD )*
//
// Precedence (highest to lowest):
//  1. Parentheses
//  2. NOT / '-' (prefix, right-associative)
//  3. AND (implicit or explicit)
//  4. OR
//
// The field registry is threaded through the parser so that a column-like
// token whose key is not registered can fall back to literal free-text
// treatment instead of failing: "cost:$50" with no "cost" field is one
// free-text phrase, not a syntax error.
type parser struct {
	lex *Lexer
	reg *Registry
	cur Token
}

// OrderKey is one trailing "order by" entry.
type OrderKey struct {
	Field *Field
	Desc  bool
}

// Parse parses a search string into an AST plus any trailing order-by keys.
// Leaf terms are not yet resolved into typed predicates; see Compile.
func Parse(input string, reg *Registry) (Expr, []OrderKey, error) {
	p := &parser{lex: NewLexer(input), reg: reg}

	// Prime the parser with the first token.
	if err := p.advance(); err != nil {
		return nil, nil, err
	}

	// Check for empty query.
	if p.cur.Kind == TokEOF {
		return nil, nil, newParseError(0, ErrEmptyQuery, "empty query")
	}

	var expr Expr
	if !p.atOrderBy() {
		var err error
		expr, err = p.parseOrExpr()
		if err != nil {
			return nil, nil, err
		}
	}

	var order []OrderKey
	if p.atOrderBy() {
		var err error
		order, err = p.parseOrderBy()
		if err != nil {
			return nil, nil, err
		}
	}

	// Ensure we consumed all input.
	if p.cur.Kind != TokEOF {
		if p.cur.Kind == TokRParen {
			return nil, nil, newParseError(p.cur.Pos, ErrUnmatchedParen, "unmatched closing parenthesis")
		}
		return nil, nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "unexpected token: %s", p.cur.Lit)
	}

	return expr, order, nil
}

// advance moves to the next token.
func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// atOrderBy reports whether the current token starts an "order by" clause.
func (p *parser) atOrderBy() bool {
	if p.cur.Kind != TokWord || p.cur.Quoted || !strings.EqualFold(p.cur.Lit, "order") {
		return false
	}
	next, err := p.lex.Peek()
	if err != nil {
		return false
	}
	return next.Kind == TokWord && !next.Quoted && strings.EqualFold(next.Lit, "by")
}

// parseOrExpr parses: or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}

	for p.cur.Kind == TokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}

		left = flattenOr(left, right)
	}

	return left, nil
}

// parseAndExpr parses: and_expr = unary_expr ( [ "AND" ] unary_expr )*
func (p *parser) parseAndExpr() (Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}

	for p.isAndStart() {
		// Consume optional AND keyword.
		if p.cur.Kind == TokAnd {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}

		right, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}

		left = flattenAnd(left, right)
	}

	return left, nil
}

// isAndStart returns true if the current token could start another unary_expr
// in an implicit AND sequence. An "order by" clause ends the expression.
func (p *parser) isAndStart() bool {
	switch p.cur.Kind {
	case TokAnd:
		// Explicit AND
		return true
	case TokNot, TokNeg, TokLParen:
		return true
	case TokWord:
		// Could start a unary_expr (implicit AND), unless it opens "order by".
		return !p.atOrderBy()
	default:
		return false
	}
}

// parseUnaryExpr parses: unary_expr = ( "NOT" | "-" ) unary_expr | primary
// Negation applied directly to a term folds into the term's Negated flag, so
// "-field:value" and "not field:value" produce identical leaves.
func (p *parser) parseUnaryExpr() (Expr, error) {
	if p.cur.Kind == TokNot || p.cur.Kind == TokNeg {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}

		// Check for something after the negation.
		if p.cur.Kind == TokEOF {
			return nil, newParseError(pos, ErrUnexpectedEOF, "expected expression after NOT")
		}
		if p.cur.Kind == TokOr || p.cur.Kind == TokAnd || p.cur.Kind == TokRParen {
			return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "expected expression after NOT, got %s", p.cur.Kind)
		}

		term, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}

		if t, ok := term.(*TermExpr); ok && !t.Negated {
			t.Negated = true
			return t, nil
		}
		return &NotExpr{Term: term}, nil
	}

	return p.parsePrimary()
}

// parsePrimary parses: primary = "(" or_expr ")" | term
func (p *parser) parsePrimary() (Expr, error) {
	if p.cur.Kind == TokLParen {
		openPos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}

		// Check for empty parens.
		if p.cur.Kind == TokRParen {
			return nil, newParseError(openPos, ErrEmptyQuery, "empty parentheses")
		}

		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}

		if p.cur.Kind != TokRParen {
			return nil, newParseError(openPos, ErrUnmatchedParen, "unmatched opening parenthesis")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}

		return expr, nil
	}

	return p.parseTerm()
}

// parseTerm parses: term = column_term | in_term | WORD
func (p *parser) parseTerm() (Expr, error) {
	// Handle unexpected tokens.
	switch p.cur.Kind {
	case TokEOF:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedEOF, "unexpected end of query")
	case TokOr, TokAnd, TokIn:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "unexpected keyword %s", p.cur.Lit)
	case TokRParen:
		return nil, newParseError(p.cur.Pos, ErrUnmatchedParen, "unmatched closing parenthesis")
	case TokOp:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "unexpected operator %q", p.cur.Lit)
	case TokComma:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "unexpected ','")
	}

	first := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}

	// Column term: WORD OP value. A quoted first word is never a column key.
	if p.cur.Kind == TokOp && !first.Quoted {
		return p.parseColumnTerm(first)
	}

	// IN list: WORD [NOT] IN ( ... )
	if !first.Quoted {
		if p.cur.Kind == TokIn {
			return p.parseInTerm(first, false)
		}
		if p.cur.Kind == TokNot {
			next, err := p.lex.Peek()
			if err != nil {
				return nil, err
			}
			if next.Kind == TokIn {
				if err := p.advance(); err != nil { // consume NOT
					return nil, err
				}
				return p.parseInTerm(first, true)
			}
		}
	}

	// Free-text term.
	return &TermExpr{Op: OpContains, Value: first.Lit, Quoted: first.Quoted, Pos: first.Pos}, nil
}

// parseColumnTerm parses the "OP value" tail of a column term. When the key
// is not registered (and the registry is not strict), the whole
// key-operator-value sequence collapses back into one literal free-text
// phrase so values containing operator characters don't become syntax errors.
func (p *parser) parseColumnTerm(key Token) (Expr, error) {
	op := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}

	val, err := p.parseValue(op)
	if err != nil {
		return nil, err
	}

	field, err := p.reg.Lookup(key.Lit)
	if err != nil {
		return nil, newCompileError(key.Pos, key.Lit, ErrAmbiguousField, "%v", err)
	}
	if field == nil {
		if p.reg.Strict {
			return nil, newCompileError(key.Pos, key.Lit, ErrUnknownField, "unknown field %q", key.Lit)
		}
		// Literal fallback: reassemble the raw text.
		lit := key.Lit + op.Lit + val.Lit
		return &TermExpr{Op: OpContains, Value: lit, Pos: key.Pos}, nil
	}

	return &TermExpr{
		Field:  field,
		Op:     Operator(op.Lit),
		Value:  val.Lit,
		Quoted: val.Quoted,
		Pos:    key.Pos,
	}, nil
}

// parseInTerm parses: "IN" "(" value ( "," value )* ")" following a column key.
// The list expands into an OR of exact-match terms; NOT IN negates the whole OR.
func (p *parser) parseInTerm(key Token, negated bool) (Expr, error) {
	inPos := p.cur.Pos
	if err := p.advance(); err != nil { // consume IN
		return nil, err
	}

	field, err := p.reg.Lookup(key.Lit)
	if err != nil {
		return nil, newCompileError(key.Pos, key.Lit, ErrAmbiguousField, "%v", err)
	}
	if field == nil {
		return nil, newCompileError(key.Pos, key.Lit, ErrUnknownField, "unknown field %q", key.Lit)
	}

	if p.cur.Kind != TokLParen {
		return nil, newParseError(inPos, ErrUnexpectedToken, "expected '(' after IN")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var terms []Expr
	for {
		val, err := p.parseValue(p.cur)
		if err != nil {
			return nil, err
		}
		terms = append(terms, &TermExpr{
			Field:  field,
			Op:     OpEq,
			Value:  val.Lit,
			Quoted: val.Quoted,
			Pos:    key.Pos,
		})

		if p.cur.Kind == TokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if p.cur.Kind != TokRParen {
		return nil, newParseError(inPos, ErrUnmatchedParen, "unmatched '(' in IN list")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var expr Expr
	if len(terms) == 1 {
		expr = terms[0]
	} else {
		expr = &OrExpr{Terms: terms}
	}
	if negated {
		expr = &NotExpr{Term: expr}
	}
	return expr, nil
}

// parseValue consumes a value token. Boolean keywords are accepted as plain
// words here ("name=and"), and a '-' directly glued to a word reads as a
// negative literal ("price>-5").
func (p *parser) parseValue(after Token) (Token, error) {
	switch p.cur.Kind {
	case TokWord, TokAnd, TokOr, TokNot, TokIn:
		val := p.cur
		val.Kind = TokWord
		if err := p.advance(); err != nil {
			return Token{}, err
		}
		return val, nil

	case TokNeg:
		neg := p.cur
		if err := p.advance(); err != nil {
			return Token{}, err
		}
		if p.cur.Kind != TokWord || p.cur.Pos != neg.End {
			return Token{}, newParseError(neg.Pos, ErrUnexpectedToken, "expected value after '-'")
		}
		val := p.cur
		if err := p.advance(); err != nil {
			return Token{}, err
		}
		val.Lit = "-" + val.Lit
		val.Pos = neg.Pos
		return val, nil

	case TokEOF:
		return Token{}, newParseError(after.End, ErrUnexpectedEOF, "expected value after %q", after.Lit)

	default:
		return Token{}, newParseError(p.cur.Pos, ErrUnexpectedToken, "expected value, got %s", p.cur.Kind)
	}
}

// parseOrderBy parses: order_by = "order" "by" [ "-" ] WORD ( "," [ "-" ] WORD )*
func (p *parser) parseOrderBy() ([]OrderKey, error) {
	byPos := p.cur.Pos
	if err := p.advance(); err != nil { // consume "order"
		return nil, err
	}
	if err := p.advance(); err != nil { // consume "by"
		return nil, err
	}

	var keys []OrderKey
	for {
		desc := false
		if p.cur.Kind == TokNeg {
			desc = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.cur.Kind != TokWord {
			return nil, newParseError(byPos, ErrUnexpectedEOF, "expected field name after ORDER BY")
		}

		field, err := p.reg.Lookup(p.cur.Lit)
		if err != nil {
			return nil, newCompileError(p.cur.Pos, p.cur.Lit, ErrAmbiguousField, "%v", err)
		}
		if field == nil {
			return nil, newCompileError(p.cur.Pos, p.cur.Lit, ErrUnknownField, "unknown field %q in ORDER BY", p.cur.Lit)
		}
		keys = append(keys, OrderKey{Field: field, Desc: desc})

		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == TokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	return keys, nil
}
