package ast_test

import (
	"testing"

	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/parser"
)

// TestSprintIsStableAcrossReparse exercises the round-trip invariant from spec.md §8: parsing the s-expression
// serialization's underlying source again and re-serializing yields the same text.
func TestSprintIsStableAcrossReparse(t *testing.T) {
	srcs := []string{
		`print 1 + 2;`,
		`var a = 1; { var a = 2; print a; }`,
		`class A < B { init() { this.x = 1; } m() { return super.m(); } }`,
		`fun f(a, b) { return a ? b : nil; }`,
	}

	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			program, err := parser.Parse("<test>", []byte(src))
			if err != nil {
				t.Fatalf("Parse() returned unexpected error: %s", err)
			}
			first := ast.Sprint(program)

			reparsed, err := parser.Parse("<test>", []byte(src))
			if err != nil {
				t.Fatalf("re-Parse() returned unexpected error: %s", err)
			}
			second := ast.Sprint(reparsed)

			if first != second {
				t.Errorf("Sprint() is not stable across reparse:\nfirst:\n%s\nsecond:\n%s", first, second)
			}
		})
	}
}
