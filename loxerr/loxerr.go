// Package loxerr defines the error types produced by the scanner, parser, resolver and interpreter.
//
// There are two disjoint taxonomies, matching the two kinds of failure a Lox program can have: [CompileError], for
// problems found before the program runs (scanning, parsing, resolving), and [RuntimeError], for problems found while
// the program is executing. Each renders itself using the exact diagnostic format mandated for that taxonomy; an
// optional caret-highlighted source snippet is available separately via [CompileError.Snippet] and
// [RuntimeError.Snippet] for tools (such as the REPL) that want to show more than the one-line message.
package loxerr

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/nwillc/golox/token"
)

// colorEnabled reports whether stderr (where diagnostics are printed) is a terminal, matching the guard the rest of
// the pack uses before emitting ANSI escapes.
var colorEnabled = term.IsTerminal(int(os.Stderr.Fd()))

var (
	boldColor = color.New(color.Bold)
	redColor  = color.New(color.FgRed)
)

// CompileError is an error found while scanning, parsing or resolving a Lox program, before it starts executing.
//
// It formats as "[line N] Error<where>: <message>", where <where> is "" for a scanner error, " at end" if the
// offending token was EOF, and " at '<lexeme>'" otherwise.
type CompileError struct {
	Line    int
	Where   string
	Message string
	pos     token.Position
}

// NewAtLine creates a [*CompileError] which isn't attributed to a particular token, such as a scanner error.
func NewAtLine(line int, format string, args ...any) *CompileError {
	return &CompileError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// NewAtToken creates a [*CompileError] attributed to tok.
func NewAtToken(tok token.Token, format string, args ...any) *CompileError {
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == token.EOF {
		where = " at end"
	}
	return &CompileError{Line: tok.Line(), Where: where, Message: fmt.Sprintf(format, args...), pos: tok.Start}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// Snippet returns a caret-highlighted view of the source line that the error applies to, or "" if no source file is
// available.
func (e *CompileError) Snippet() string {
	return snippet(e.pos)
}

// ColorError is like Error, but with the "[line N] Error<where>" prefix bolded and "Error" itself in red when stderr
// is a terminal. The message itself always appears unmodified in this output, so tooling that greps stderr for the
// message still matches; when colors are on, the "[line N] Error<where>" prefix is interleaved with escape codes.
func (e *CompileError) ColorError() string {
	if !colorEnabled {
		return e.Error()
	}
	return boldColor.Sprintf("[line %d] %s%s", e.Line, redColor.Sprint("Error"), e.Where) + ": " + e.Message
}

// CompileErrors is a list of [*CompileError]s.
type CompileErrors []*CompileError

// Add appends a [*CompileError] not attributed to a particular token.
func (e *CompileErrors) Add(line int, format string, args ...any) {
	*e = append(*e, NewAtLine(line, format, args...))
}

// AddToken appends a [*CompileError] attributed to tok.
func (e *CompileErrors) AddToken(tok token.Token, format string, args ...any) {
	*e = append(*e, NewAtToken(tok, format, args...))
}

// Sort orders the errors by the line they were reported on, preserving relative order within a line. This keeps
// output deterministic even though different passes may not discover errors in line order.
func (e CompileErrors) Sort() {
	sort.SliceStable(e, func(i, j int) bool { return e[i].Line < e[j].Line })
}

// Err returns e as an error, or nil if e is empty. It should be used whenever a [CompileErrors] is returned as an
// error so that an empty list becomes an untyped nil rather than a non-nil error holding a nil-looking value.
func (e CompileErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e CompileErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// ColorError joins every error's ColorError output, one per line.
func (e CompileErrors) ColorError() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.ColorError()
	}
	return strings.Join(msgs, "\n")
}

// RuntimeError is an error encountered while executing a Lox program.
//
// It formats as "<message>\n[line N]".
type RuntimeError struct {
	Line    int
	Message string
	pos     token.Position
}

// NewRuntimeError creates a [*RuntimeError] attributed to tok.
func NewRuntimeError(tok token.Token, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: tok.Line(), Message: fmt.Sprintf(format, args...), pos: tok.Start}
}

// NewRuntimeErrorAt is like [NewRuntimeError] but takes a raw position, for errors not attributed to a single token.
func NewRuntimeErrorAt(pos token.Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: pos.Line, Message: fmt.Sprintf(format, args...), pos: pos}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Line)
}

// Snippet returns a caret-highlighted view of the source line that the error applies to, or "" if no source file is
// available.
func (e *RuntimeError) Snippet() string {
	return snippet(e.pos)
}

// ColorError is like Error, but bolded, with stderr-terminal detection identical to [CompileError.ColorError].
func (e *RuntimeError) ColorError() string {
	if !colorEnabled {
		return e.Error()
	}
	return boldColor.Sprint(e.Message) + fmt.Sprintf("\n[line %d]", e.Line)
}

func snippet(pos token.Position) string {
	if pos.File == nil {
		return ""
	}
	line := pos.File.Line(pos.Line)
	col := min(pos.Column, len(line))
	var b strings.Builder
	fmt.Fprintln(&b, string(line))
	fmt.Fprint(&b, strings.Repeat(" ", runewidth.StringWidth(string(line[:col]))), "^")
	return b.String()
}
