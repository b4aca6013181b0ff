package searchlang

import "strings"

// SpanRole identifies a syntax highlighting role.
type SpanRole string

const (
	RoleKey        SpanRole = "key"
	RoleOperator   SpanRole = "operator"
	RoleValue      SpanRole = "value"
	RoleQuoted     SpanRole = "quoted"
	RoleWord       SpanRole = "word"
	RoleKeyword    SpanRole = "keyword"
	RoleNeg        SpanRole = "neg"
	RoleParen      SpanRole = "paren"
	RoleComma      SpanRole = "comma"
	RoleWhitespace SpanRole = "whitespace"
	RoleError      SpanRole = "error"
)

// Span is a highlighted text span. Concatenating the Text of all spans
// reproduces the input exactly.
type Span struct {
	Text string   `json:"text"`
	Role SpanRole `json:"role"`
}

// Highlight lexes a search string into styled spans for UI display. It never
// fails: on a lex error the remainder of the input becomes one error span.
// No registry is consulted; a word in key position gets RoleKey whether or
// not the key is registered.
func Highlight(input string) []Span {
	lex := NewLexer(input)

	var toks []Token
	errPos := -1
	for {
		tok, err := lex.Next()
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				errPos = pe.Pos
			} else {
				errPos = 0
			}
			break
		}
		if tok.Kind == TokEOF {
			break
		}
		toks = append(toks, tok)
	}

	var spans []Span
	cursor := 0
	emit := func(end int, role SpanRole) {
		if end > cursor {
			spans = append(spans, Span{Text: input[cursor:end], Role: role})
			cursor = end
		}
	}

	for i, tok := range toks {
		if tok.Pos > cursor {
			emit(tok.Pos, RoleWhitespace)
		}
		emit(tok.End, roleFor(toks, i))
	}

	if errPos >= 0 {
		if errPos > cursor {
			emit(errPos, RoleWhitespace)
		}
		emit(len(input), RoleError)
	} else if cursor < len(input) {
		emit(len(input), RoleWhitespace)
	}

	return spans
}

func roleFor(toks []Token, i int) SpanRole {
	tok := toks[i]

	switch tok.Kind {
	case TokOp:
		return RoleOperator
	case TokAnd, TokOr, TokNot, TokIn:
		return RoleKeyword
	case TokNeg:
		return RoleNeg
	case TokLParen, TokRParen:
		return RoleParen
	case TokComma:
		return RoleComma
	}

	// Words: position decides.
	if tok.Quoted {
		return RoleQuoted
	}
	if i+1 < len(toks) && toks[i+1].Kind == TokOp && !tok.Quoted {
		return RoleKey
	}
	if i > 0 && toks[i-1].Kind == TokOp {
		return RoleValue
	}
	if isOrderByWord(toks, i) {
		return RoleKeyword
	}
	return RoleWord
}

// isOrderByWord reports whether toks[i] is the "order" or "by" of an
// "order by" pair.
func isOrderByWord(toks []Token, i int) bool {
	eq := strings.EqualFold
	if eq(toks[i].Lit, "order") && i+1 < len(toks) && toks[i+1].Kind == TokWord && eq(toks[i+1].Lit, "by") {
		return true
	}
	if eq(toks[i].Lit, "by") && i > 0 && toks[i-1].Kind == TokWord && eq(toks[i-1].Lit, "order") {
		return true
	}
	return false
}
