package parse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// maxLineSize bounds a single report line. Routed DEF files carry very long
// NETS lines.
const maxLineSize = 16 * 1024 * 1024

// Scanner reads a text stream line by line and tracks the current position so
// parsers can attach it to errors.
type Scanner struct {
	sc     *bufio.Scanner
	source string
	line   int
	text   string
}

// NewScanner creates a Scanner over r. source names the stream in errors.
func NewScanner(r io.Reader, source string) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Scanner{sc: sc, source: source}
}

// Scan advances to the next line.
func (s *Scanner) Scan() bool {
	if !s.sc.Scan() {
		return false
	}
	s.line++
	s.text = s.sc.Text()
	return true
}

// Text returns the current line without its terminator.
func (s *Scanner) Text() string { return s.text }

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int { return s.line }

// Source returns the stream name.
func (s *Scanner) Source() string { return s.source }

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error { return s.sc.Err() }

// Formatf builds a FormatError at the current line.
func (s *Scanner) Formatf(format string, args ...any) *FormatError {
	return Formatf(s.source, s.line, format, args...)
}

// WrapFormat turns err into a FormatError at the current line.
func (s *Scanner) WrapFormat(err error) *FormatError {
	return WrapFormat(s.source, s.line, err)
}

// Float parses tok at the current line.
func (s *Scanner) Float(tok string) (float64, error) {
	return Float(s.source, s.line, tok)
}

// Int parses tok at the current line.
func (s *Scanner) Int(tok string) (int, error) {
	return Int(s.source, s.line, tok)
}

// Float parses a decimal or scientific token. It never evaluates expressions.
func Float(source string, line int, tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, &NumberError{Source: source, Line: line, Token: tok, Err: err}
	}
	return v, nil
}

// Int parses a base-10 integer token.
func Int(source string, line int, tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, &NumberError{Source: source, Line: line, Token: tok, Err: err}
	}
	return v, nil
}

var unescaper = strings.NewReplacer(`\`, "", `"`, "")

// Unescape strips backslash escapes and double quotes from a design object
// name, e.g. `"u_core\/alu\[3\]"` becomes `u_core/alu[3]`.
func Unescape(name string) string {
	return unescaper.Replace(name)
}
