package condition

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError reports an unparseable condition string. It carries the
// offending substring and its byte offset so the caller can point at the
// exact spot in the original attribute value.
type ParseError struct {
	Input   string
	Offset  int
	Near    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("malformed condition at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("malformed condition at offset %d near %q: %s", e.Offset, e.Near, e.Message)
}

// Parse parses a condition string into an expression tree.
//
// Grammar (left-associative, '&' binds tighter than '|'):
//
//	expr      := term ('|' term)*
//	term      := factor ('&' factor)*
//	factor    := '(' expr ')' | predicate
//	predicate := kind '(' jobname ')'
//	kind      := success | failure | done | terminated | notrunning
//
// Keywords match case-insensitively and whitespace is insignificant.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, p.errorf(p.pos, "unexpected trailing input")
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(offset int, format string, args ...any) *ParseError {
	near := p.input[offset:]
	if len(near) > 20 {
		near = near[:20]
	}
	return &ParseError{
		Input:   p.input,
		Offset:  offset,
		Near:    strings.TrimSpace(near),
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() (byte, bool) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

// parseExpr handles the lowest-precedence '|' level.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		c, ok := p.peek()
		if !ok || c != '|' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Combinator{Op: OpOr, Left: left, Right: right}
	}
}

// parseTerm handles the tighter-binding '&' level.
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		c, ok := p.peek()
		if !ok || c != '&' {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Combinator{Op: OpAnd, Left: left, Right: right}
	}
}

func (p *parser) parseFactor() (Expr, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errorf(p.pos, "expected predicate or '('")
	}
	if c == '(' {
		open := p.pos
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c, ok = p.peek()
		if !ok || c != ')' {
			return nil, p.errorf(open, "unbalanced parenthesis")
		}
		p.pos++
		return inner, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (Expr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && isKeywordChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, p.errorf(start, "expected predicate keyword")
	}
	keyword := p.input[start:p.pos]
	kind, ok := predicateKinds[strings.ToLower(keyword)]
	if !ok {
		return nil, p.errorf(start, "unknown predicate keyword %q", keyword)
	}

	c, have := p.peek()
	if !have || c != '(' {
		return nil, p.errorf(p.pos, "expected '(' after %q", keyword)
	}
	open := p.pos
	p.pos++
	p.skipSpace()

	nameStart := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ')' && !unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	name := p.input[nameStart:p.pos]
	if name == "" {
		return nil, p.errorf(open, "empty job name in %s()", kind)
	}

	c, have = p.peek()
	if !have || c != ')' {
		return nil, p.errorf(open, "unbalanced parenthesis in %s()", kind)
	}
	p.pos++

	return &Predicate{Kind: kind, JobRef: name}, nil
}

var predicateKinds = map[string]PredicateKind{
	"success":    KindSuccess,
	"failure":    KindFailure,
	"done":       KindDone,
	"terminated": KindTerminated,
	"notrunning": KindNotRunning,
}

func isKeywordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
