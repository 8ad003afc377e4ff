package formfile

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokAtom
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrack:
		return "'['"
	case tokRBrack:
		return "']'"
	case tokAtom:
		return "atom"
	}
	return "unknown"
}

type token struct {
	kind tokKind
	off  uint32
	text string
}

// scanner splits an integrand into parentheses, brackets and atoms.
// Comments run from ';' to the end of the line.
type scanner struct {
	src   string
	off   uint32
	limit uint32
}

func newScanner(src string) *scanner {
	limit, err := safecast.Conv[uint32](len(src))
	if err != nil {
		panic(fmt.Errorf("integrand length overflow: %w", err))
	}
	return &scanner{src: src, limit: limit}
}

func (s *scanner) eof() bool {
	return s.off >= s.limit
}

func (s *scanner) peekRune() (r rune, size uint32) {
	if s.eof() {
		return utf8.RuneError, 0
	}
	b := s.src[s.off]
	if b < utf8.RuneSelf {
		return rune(b), 1
	}
	r, sz := utf8.DecodeRuneInString(s.src[s.off:])
	usz, err := safecast.Conv[uint32](sz)
	if err != nil {
		panic(fmt.Errorf("rune size overflow: %w", err))
	}
	return r, usz
}

func (s *scanner) skipTrivia() {
	for !s.eof() {
		r, sz := s.peekRune()
		switch {
		case r == ';':
			for !s.eof() && s.src[s.off] != '\n' {
				s.off++
			}
		case unicode.IsSpace(r):
			s.off += sz
		default:
			return
		}
	}
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', ';':
		return true
	}
	return unicode.IsSpace(r)
}

func (s *scanner) next() token {
	s.skipTrivia()
	if s.eof() {
		return token{kind: tokEOF, off: s.off}
	}
	start := s.off
	switch s.src[s.off] {
	case '(':
		s.off++
		return token{kind: tokLParen, off: start, text: "("}
	case ')':
		s.off++
		return token{kind: tokRParen, off: start, text: ")"}
	case '[':
		s.off++
		return token{kind: tokLBrack, off: start, text: "["}
	case ']':
		s.off++
		return token{kind: tokRBrack, off: start, text: "]"}
	}
	for !s.eof() {
		r, sz := s.peekRune()
		if isDelimiter(r) {
			break
		}
		s.off += sz
	}
	return token{kind: tokAtom, off: start, text: s.src[start:s.off]}
}
