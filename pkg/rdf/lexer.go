package rdf

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokURI    // <...>，text 不含尖括号
	tokString // '...' 或 "..."，text 已反转义
	tokLBrace
	tokRBrace
	tokDot
	tokSemi
)

type token struct {
	kind tokenKind
	text string
}

// lexer 是 patch / N-Triples 共用的极简扫描器。
// 只认识本仓库需要的记号，不追求完整 SPARQL 词法。
type lexer struct {
	input []rune
	pos   int
	line  int
}

func newLexer(input string) *lexer {
	return &lexer{input: []rune(input), line: 1}
}

func (lx *lexer) errorf(format string, args ...any) error {
	return &ParseError{Line: lx.line, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.input) {
		r := lx.input[lx.pos]
		switch {
		case r == '\n':
			lx.line++
			lx.pos++
		case unicode.IsSpace(r):
			lx.pos++
		case r == '{':
			lx.pos++
			return token{tokLBrace, "{"}, nil
		case r == '}':
			lx.pos++
			return token{tokRBrace, "}"}, nil
		case r == '.':
			lx.pos++
			return token{tokDot, "."}, nil
		case r == ';':
			lx.pos++
			return token{tokSemi, ";"}, nil
		case r == '<':
			return lx.scanURI()
		case r == '\'' || r == '"':
			return lx.scanString(r)
		case unicode.IsLetter(r):
			return lx.scanIdent(), nil
		default:
			return token{}, lx.errorf("unexpected character %q", r)
		}
	}
	return token{kind: tokEOF}, nil
}

func (lx *lexer) expectIdent(want string) error {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != tokIdent || !strings.EqualFold(tok.text, want) {
		return lx.errorf("expected %s, got %q", want, tok.text)
	}
	return nil
}

func (lx *lexer) scanURI() (token, error) {
	lx.pos++ // consume '<'
	start := lx.pos
	for lx.pos < len(lx.input) {
		r := lx.input[lx.pos]
		if r == '>' {
			text := string(lx.input[start:lx.pos])
			lx.pos++
			return token{tokURI, text}, nil
		}
		if r == '\n' {
			return token{}, lx.errorf("unterminated URI")
		}
		lx.pos++
	}
	return token{}, lx.errorf("unterminated URI")
}

func (lx *lexer) scanString(quote rune) (token, error) {
	lx.pos++ // consume opening quote
	var b strings.Builder
	for lx.pos < len(lx.input) {
		r := lx.input[lx.pos]
		switch r {
		case quote:
			lx.pos++
			return token{tokString, b.String()}, nil
		case '\\':
			lx.pos++
			if lx.pos >= len(lx.input) {
				return token{}, lx.errorf("unterminated escape sequence")
			}
			esc := lx.input[lx.pos]
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 'r':
				b.WriteRune('\r')
			case 't':
				b.WriteRune('\t')
			case '\\', '\'', '"':
				b.WriteRune(esc)
			default:
				return token{}, lx.errorf("unknown escape \\%c", esc)
			}
			lx.pos++
		case '\n':
			return token{}, lx.errorf("unterminated string literal")
		default:
			b.WriteRune(r)
			lx.pos++
		}
	}
	return token{}, lx.errorf("unterminated string literal")
}

func (lx *lexer) scanIdent() token {
	start := lx.pos
	for lx.pos < len(lx.input) && (unicode.IsLetter(lx.input[lx.pos]) || unicode.IsDigit(lx.input[lx.pos])) {
		lx.pos++
	}
	return token{tokIdent, string(lx.input[start:lx.pos])}
}
