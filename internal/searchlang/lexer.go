package searchlang

import (
	"strings"
)

// TokenKind identifies the type of lexical token.
type TokenKind int

const (
	TokEOF    TokenKind = iota
	TokWord             // bareword or quoted string (quotes stripped, escapes processed)
	TokOr               // OR (case-insensitive)
	TokAnd              // AND (case-insensitive)
	TokNot              // NOT (case-insensitive)
	TokIn               // IN (case-insensitive)
	TokNeg              // '-' bound to the following word or '('
	TokOp               // one of : = != > >= < <=
	TokLParen           // (
	TokRParen           // )
	TokComma            // , (separates IN-list and ORDER BY values)
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokWord:
		return "WORD"
	case TokOr:
		return "OR"
	case TokAnd:
		return "AND"
	case TokNot:
		return "NOT"
	case TokIn:
		return "IN"
	case TokNeg:
		return "-"
	case TokOp:
		return "OPERATOR"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokComma:
		return ","
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lit    string // for quoted strings: unescaped content without quotes
	Pos    int    // byte offset in input for error reporting
	End    int    // byte offset one past the token
	Quoted bool   // WORD came from a quoted string (forces exact-phrase semantics)
}

// Lexer tokenizes a search string.
type Lexer struct {
	input string
	pos   int // current position in input
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos, End: l.pos}, nil
	}

	startPos := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Lit: "(", Pos: startPos, End: l.pos}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Lit: ")", Pos: startPos, End: l.pos}, nil
	case ',':
		l.pos++
		return Token{Kind: TokComma, Lit: ",", Pos: startPos, End: l.pos}, nil
	case ':', '=':
		l.pos++
		return Token{Kind: TokOp, Lit: string(ch), Pos: startPos, End: l.pos}, nil
	case '>', '<':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return Token{Kind: TokOp, Lit: l.input[startPos:l.pos], Pos: startPos, End: l.pos}, nil
	case '!':
		// '!' is only an operator as part of '!='; otherwise it is bareword text.
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Kind: TokOp, Lit: "!=", Pos: startPos, End: l.pos}, nil
		}
	case '"', '\'':
		return l.scanQuotedString(ch)
	case '-':
		// A '-' directly preceding a word or '(' negates it. A standalone '-'
		// (followed by whitespace, ')', or end of input) is an ordinary word.
		if l.pos+1 < len(l.input) && isNegatable(l.input[l.pos+1]) {
			l.pos++
			return Token{Kind: TokNeg, Lit: "-", Pos: startPos, End: l.pos}, nil
		}
	}

	// Bareword (may be a keyword)
	return l.scanBareword(), nil
}

// skipWhitespace advances past whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.pos++
		} else {
			break
		}
	}
}

// scanQuotedString scans a quoted string, processing escape sequences.
// Quoted words carry Quoted=true so multi-word phrases match as one literal unit.
func (l *Lexer) scanQuotedString(quote byte) (Token, error) {
	startPos := l.pos
	l.pos++ // skip opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == quote {
			l.pos++ // skip closing quote
			return Token{Kind: TokWord, Lit: sb.String(), Pos: startPos, End: l.pos, Quoted: true}, nil
		}

		if ch == '\\' {
			l.pos++
			if l.pos >= len(l.input) {
				return Token{}, newParseError(l.pos-1, ErrUnterminatedString, "unterminated string: escape at end of input")
			}

			escaped := l.input[l.pos]
			switch escaped {
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				return Token{}, newParseError(l.pos-1, ErrInvalidEscape, "invalid escape sequence: \\%c", escaped)
			}
			l.pos++
			continue
		}

		sb.WriteByte(ch)
		l.pos++
	}

	return Token{}, newParseError(startPos, ErrUnterminatedString, "unterminated string starting at position %d", startPos)
}

// scanBareword scans a bareword token, which may be a keyword.
func (l *Lexer) scanBareword() Token {
	startPos := l.pos

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '!' {
			// '!' terminates a bareword only when it starts a '!=' operator.
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
				break
			}
			l.pos++
			continue
		}
		if !isBarewordChar(ch) {
			break
		}
		l.pos++
	}

	lit := l.input[startPos:l.pos]
	return Token{Kind: classifyWord(lit), Lit: lit, Pos: startPos, End: l.pos}
}

// isBarewordChar returns true if ch can be part of a bareword.
// Barewords exclude: whitespace, ()," ' , and the operator characters := < >.
func isBarewordChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r':
		return false
	case '(', ')', ',', '"', '\'', ':', '=', '<', '>':
		return false
	default:
		return true
	}
}

// isNegatable returns true if ch can directly follow a negation '-'.
func isNegatable(ch byte) bool {
	return ch == '(' || isBarewordChar(ch)
}

// classifyWord checks if a word is a keyword (case-insensitive).
func classifyWord(word string) TokenKind {
	switch strings.ToUpper(word) {
	case "OR":
		return TokOr
	case "AND":
		return TokAnd
	case "NOT":
		return TokNot
	case "IN":
		return TokIn
	default:
		return TokWord
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	savedPos := l.pos
	tok, err := l.Next()
	l.pos = savedPos
	return tok, err
}
