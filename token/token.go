// Package token declares the type representing a lexical token of Lox code.
package token

import (
	"cmp"
	"fmt"

	"github.com/mattn/go-runewidth"
)

// Special identifiers recognised outside of the usual scoping rules.
const (
	// IdentThis is the identifier used to refer to the current instance inside a method.
	IdentThis = "this"
	// IdentSuper is the identifier used to refer to a class's superclass inside a method.
	IdentSuper = "super"
	// IdentInit is the name of a class's constructor method.
	IdentInit = "init"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type Type -linecomment

// Type is the type of a lexical token of Lox code.
type Type int

// The closed set of token types that the scanner can produce.
const (
	Illegal Type = iota
	EOF

	// Keywords
	keywordsStart
	And    // and
	Break  // break
	Class  // class
	Else   // else
	False  // false
	For    // for
	Fun    // fun
	If     // if
	Nil    // nil
	Or     // or
	Print  // print
	Return // return
	Super  // super
	This   // this
	True   // true
	Var    // var
	While  // while
	keywordsEnd

	// Literals
	Ident
	String
	Number

	// Symbols
	LeftParen    // (
	RightParen   // )
	LeftBrace    // {
	RightBrace   // }
	Comma        // ,
	Dot          // .
	Minus        // -
	Plus         // +
	Semicolon    // ;
	Slash        // /
	Star         // *
	Question     // ?
	Colon        // :
	Bang         // !
	BangEqual    // !=
	Equal        // =
	EqualEqual   // ==
	Greater      // >
	GreaterEqual // >=
	Less         // <
	LessEqual    // <=
)

var typeStrings = map[Type]string{
	Illegal: "illegal",
	EOF:     "EOF",

	And:    "and",
	Break:  "break",
	Class:  "class",
	Else:   "else",
	False:  "false",
	For:    "for",
	Fun:    "fun",
	If:     "if",
	Nil:    "nil",
	Or:     "or",
	Print:  "print",
	Return: "return",
	Super:  "super",
	This:   "this",
	True:   "true",
	Var:    "var",
	While:  "while",

	Ident:  "identifier",
	String: "string",
	Number: "number",

	LeftParen:    "(",
	RightParen:   ")",
	LeftBrace:    "{",
	RightBrace:   "}",
	Comma:        ",",
	Dot:          ".",
	Minus:        "-",
	Plus:         "+",
	Semicolon:    ";",
	Slash:        "/",
	Star:         "*",
	Question:     "?",
	Colon:        ":",
	Bang:         "!",
	BangEqual:    "!=",
	Equal:        "=",
	EqualEqual:   "==",
	Greater:      ">",
	GreaterEqual: ">=",
	Less:         "<",
	LessEqual:    "<=",
}

// String returns the name of the token type.
func (t Type) String() string {
	if s, ok := typeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

var keywordTypesByIdent = func() map[string]Type {
	m := make(map[string]Type, keywordsEnd-keywordsStart-1)
	for i := keywordsStart + 1; i < keywordsEnd; i++ {
		m[typeStrings[i]] = i
	}
	return m
}()

// IdentType returns the type of the keyword with the given identifier, or Ident if the identifier is not a keyword.
func IdentType(ident string) Type {
	if t, ok := keywordTypesByIdent[ident]; ok {
		return t
	}
	return Ident
}

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which formats the
// type for use in an error message.
func (t Type) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		fmt.Fprintf(f, "'%s'", t.String())
	default:
		fmt.Fprint(f, t.String())
	}
}

// Literal is the parsed payload of a string or number token. It is nil for every other token type.
type Literal interface{}

// Token is a lexical token of Lox code. It is immutable once produced by the scanner.
type Token struct {
	Type    Type
	Lexeme  string
	Literal Literal
	Start   Position
	End     Position
}

// Line returns the 1-based line number that the token starts on.
func (t Token) Line() int {
	return t.Start.Line
}

func (t Token) String() string {
	return fmt.Sprintf("%s: %s [%s]", t.Start, t.Lexeme, t.Type)
}

// Range describes a span of characters in the source code. [Token] implements it; ast.Node exposes the same span
// through its Start and End methods and does not implement Range.
type Range interface {
	RangeStart() Position
	RangeEnd() Position
}

// RangeStart implements Range.
func (t Token) RangeStart() Position { return t.Start }

// RangeEnd implements Range.
func (t Token) RangeEnd() Position { return t.End }

// Position is a position in a source file.
type Position struct {
	File   *File
	Line   int // 1-based line number
	Column int // 0-based byte offset from the start of the line
}

// Compare returns -1 if p comes before other, 0 if they're equal and +1 if p comes after other.
func (p Position) Compare(other Position) int {
	if p.Line == other.Line {
		return cmp.Compare(p.Column, other.Column)
	}
	return cmp.Compare(p.Line, other.Line)
}

func (p Position) String() string {
	prefix := ""
	if p.File != nil && p.File.Name != "" {
		prefix = p.File.Name + ":"
	}
	if p.File == nil {
		return fmt.Sprintf("%sline %d", prefix, p.Line)
	}
	line := p.File.Line(p.Line)
	col := runewidth.StringWidth(string(line[:min(p.Column, len(line))])) + 1
	return fmt.Sprintf("%s%d:%d", prefix, p.Line, col)
}

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' which formats the position for
// use in an error message.
func (p Position) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm', 's':
		fmt.Fprint(f, p.String())
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), p.String())
	}
}

// File is a simple representation of a source file, used to recover the source line that a diagnostic applies to.
type File struct {
	Name        string
	Contents    []byte
	lineOffsets []int
}

// NewFile returns a new File with the given contents.
func NewFile(name string, contents []byte) *File {
	f := &File{Name: name, Contents: contents}
	f.lineOffsets = append(f.lineOffsets, 0)
	for i, b := range contents {
		if b == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// Line returns the nth (1-based) line of the file, without its trailing newline.
func (f *File) Line(n int) []byte {
	if n < 1 || n > len(f.lineOffsets) {
		return nil
	}
	low := f.lineOffsets[n-1]
	high := len(f.Contents)
	if n < len(f.lineOffsets) {
		high = f.lineOffsets[n] - 1
	}
	if high > len(f.Contents) {
		high = len(f.Contents)
	}
	return f.Contents[low:high]
}
