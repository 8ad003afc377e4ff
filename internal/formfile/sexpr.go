package formfile

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"formc/internal/expr"
)

// Placeholder stands for an absent marker parameter.
const Placeholder = "_"

// SyntaxError reports a malformed integrand. Offset is a byte offset into
// the integrand text.
type SyntaxError struct {
	Offset uint32
	Msg    string
	// MarkerArity is set when a marker has the wrong number of arguments.
	MarkerArity bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

type parser struct {
	b    *expr.Builder
	sc   *scanner
	look token
}

// ParseExpr reads one expression in the syntax produced by expr.Builder.Format
// and allocates its nodes in b. Identifiers are NFC-normalised.
func ParseExpr(b *expr.Builder, src string) (expr.ID, error) {
	p := &parser{b: b, sc: newScanner(norm.NFC.String(src))}
	p.advance()
	id, err := p.parseExpr(false)
	if err != nil {
		return expr.NoID, err
	}
	if p.look.kind != tokEOF {
		return expr.NoID, p.errorf("unexpected %s after expression", p.describe())
	}
	return id, nil
}

func (p *parser) advance() {
	p.look = p.sc.next()
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: p.look.off, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) describe() string {
	if p.look.kind == tokAtom {
		return strconv.Quote(p.look.text)
	}
	return p.look.kind.String()
}

// parseExpr parses one expression. allowHole permits the placeholder, which
// only marker parameters may use.
func (p *parser) parseExpr(allowHole bool) (expr.ID, error) {
	switch p.look.kind {
	case tokAtom:
		text := p.look.text
		if text == Placeholder {
			if !allowHole {
				return expr.NoID, p.errorf("placeholder %q is only valid as a %s parameter", Placeholder, expr.MarkerName)
			}
			p.advance()
			return expr.NoID, nil
		}
		id, err := p.terminal(text)
		if err != nil {
			return expr.NoID, err
		}
		p.advance()
		return id, nil
	case tokLBrack:
		return p.parseMultiIndex()
	case tokLParen:
		return p.parseCall()
	}
	return expr.NoID, p.errorf("expected expression, found %s", p.describe())
}

func (p *parser) terminal(text string) (expr.ID, error) {
	name, labelText, hasLabel := strings.Cut(text, "#")
	if name == "" {
		return expr.NoID, p.errorf("empty terminal name in %q", text)
	}
	if name == expr.MarkerName {
		return expr.NoID, p.errorf("%s must be applied, not used as a terminal", expr.MarkerName)
	}
	if !hasLabel {
		return p.b.NewTerminal(name, expr.NoLabel), nil
	}
	label, err := strconv.Atoi(labelText)
	if err != nil || label < 0 {
		return expr.NoID, p.errorf("invalid label %q on terminal %q", labelText, name)
	}
	return p.b.NewTerminal(name, label), nil
}

func (p *parser) parseMultiIndex() (expr.ID, error) {
	p.advance() // [
	var indices []int
	for p.look.kind == tokAtom {
		ix, err := strconv.Atoi(p.look.text)
		if err != nil {
			return expr.NoID, p.errorf("multi-index entry %q is not an integer", p.look.text)
		}
		indices = append(indices, ix)
		p.advance()
	}
	if p.look.kind != tokRBrack {
		return expr.NoID, p.errorf("expected ']' to close multi-index, found %s", p.describe())
	}
	p.advance()
	return p.b.NewMultiIndex(indices...), nil
}

func (p *parser) parseCall() (expr.ID, error) {
	open := p.look.off
	p.advance() // (
	if p.look.kind != tokAtom || p.look.text == Placeholder {
		return expr.NoID, p.errorf("expected operator name, found %s", p.describe())
	}
	name := p.look.text
	p.advance()

	isMarker := name == expr.MarkerName
	var args []expr.ID
	for p.look.kind != tokRParen {
		if p.look.kind == tokEOF {
			return expr.NoID, &SyntaxError{Offset: open, Msg: fmt.Sprintf("unclosed '(' for %q", name)}
		}
		// the wrapped expression of a marker is mandatory, its parameters are not
		id, err := p.parseExpr(isMarker && len(args) > 0)
		if err != nil {
			return expr.NoID, err
		}
		args = append(args, id)
	}
	p.advance() // )

	if !isMarker {
		return p.b.NewOperator(name, args...), nil
	}
	if len(args) != 4 {
		return expr.NoID, &SyntaxError{
			Offset:      open,
			Msg:         fmt.Sprintf("%s takes an expression and three parameters, got %d arguments", expr.MarkerName, len(args)),
			MarkerArity: true,
		}
	}
	return p.b.NewMarker(args[0], expr.MarkerParams{
		Direction:   args[1],
		Coefficient: args[2],
		Relation:    args[3],
	}), nil
}
