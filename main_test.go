package main

import (
	"bytes"
	"testing"

	"github.com/nwillc/golox/interpreter"
	"github.com/nwillc/golox/parser"
)

// TestRunExitCodes exercises the concrete scenarios from spec.md §8 end to end through run(), the same entry point
// main() uses for -c, file and REPL-line execution.
func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantCode int
	}{
		{name: "successful program", src: `print 1 + 2;`, wantCode: exitSuccess},
		{name: "compile error", src: `var a = ;`, wantCode: exitCompileErr},
		{name: "runtime error", src: `1 / 0;`, wantCode: exitRuntimeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(tt.src, "<test>", interpreter.New())
			if got != tt.wantCode {
				t.Errorf("run(%q) = %d, want %d", tt.src, got, tt.wantCode)
			}
		})
	}
}

// TestRunREPLLineEchoesTrailingExpression exercises the fix this behaviour was missing: a REPL line with leading
// statements and a trailing bare expression should run the leading statements exactly once and echo the trailing
// expression's value exactly once, not re-run everything or double-evaluate the expression.
func TestRunREPLLineEchoesTrailingExpression(t *testing.T) {
	var out bytes.Buffer
	interp := interpreter.New(interpreter.WithStdout(&out))

	runREPLLine(`fun sideEffect() { print "called"; return 41; } var a = sideEffect() + 1;`, interp)
	runREPLLine(`a`, interp)

	want := "called\n42\n"
	if out.String() != want {
		t.Errorf("runREPLLine() printed %q, want %q", out.String(), want)
	}
}

// TestRunREPLLineDoesNotDoubleRunLeadingStatements ensures a leading statement with a side effect runs once even
// when the line ends in a bare expression that gets echoed.
func TestRunREPLLineDoesNotDoubleRunLeadingStatements(t *testing.T) {
	var out bytes.Buffer
	interp := interpreter.New(interpreter.WithStdout(&out))

	runREPLLine(`print "side effect"; 1 + 1`, interp)

	want := "side effect\n2\n"
	if out.String() != want {
		t.Errorf("runREPLLine() printed %q, want %q", out.String(), want)
	}
}

func TestLastBareExprStmt(t *testing.T) {
	// Exercised indirectly via runREPLLine in the REPL; this checks the classification directly for the cases that
	// matter to the echo behaviour described in spec.md §6: only the *last* statement's shape decides whether a
	// REPL line is echoed, regardless of how many statements precede it.
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "bare expression", src: "1 + 2;", want: true},
		{name: "var declaration is not echoed", src: "var a = 1;", want: false},
		{name: "print statement is not echoed", src: "print 1;", want: false},
		{name: "empty program is not echoed", src: "", want: false},
		{
			name: "trailing bare expression after other statements is echoed",
			src:  "var a = 1; a + 1;",
			want: true,
		},
		{
			name: "trailing non-expression statement after other statements is not echoed",
			src:  "var a = 1; print a;",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := parser.Parse("<test>", []byte(tt.src))
			if err != nil {
				t.Fatalf("parse failed: %s", err)
			}
			_, got := lastBareExprStmt(program)
			if got != tt.want {
				t.Errorf("lastBareExprStmt(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}
