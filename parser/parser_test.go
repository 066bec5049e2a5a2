package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/parser"
)

func TestParseValidPrograms(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantStmts int
	}{
		{name: "empty program", src: "", wantStmts: 0},
		{name: "var declaration", src: "var a = 1;", wantStmts: 1},
		{name: "expression statement", src: "1 + 2;", wantStmts: 1},
		{name: "print statement", src: `print "hi";`, wantStmts: 1},
		{name: "block", src: "{ var a = 1; print a; }", wantStmts: 1},
		{name: "if/else", src: "if (true) print 1; else print 2;", wantStmts: 1},
		{name: "while", src: "while (true) print 1;", wantStmts: 1},
		{
			name:      "for loop desugars to a block",
			src:       "for (var i = 0; i < 10; i = i + 1) print i;",
			wantStmts: 1,
		},
		{name: "function declaration", src: "fun f(a, b) { return a + b; }", wantStmts: 1},
		{name: "class declaration", src: "class A { init() {} greet() { print 1; } }", wantStmts: 1},
		{
			name:      "class with superclass and class method",
			src:       "class A < B { class make() { return A(); } }",
			wantStmts: 1,
		},
		{name: "break inside while", src: "while (true) { break; }", wantStmts: 1},
		{name: "ternary", src: "var a = true ? 1 : 2;", wantStmts: 1},
		{name: "comma expression", src: "var a = (1, 2, 3);", wantStmts: 1},
		{name: "anonymous function expression", src: "var f = fun (a) { return a; };", wantStmts: 1},
		{name: "getter method", src: "class A { prop { return 1; } }", wantStmts: 1},
		{name: "super call", src: "class A < B { m() { return super.m(); } }", wantStmts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := parser.Parse("<test>", []byte(tt.src))
			if err != nil {
				t.Fatalf("Parse() returned unexpected error: %s", err)
			}
			if len(program.Stmts) != tt.wantStmts {
				t.Errorf("Parse() returned %d statements, want %d", len(program.Stmts), tt.wantStmts)
			}
			for _, stmt := range program.Stmts {
				if _, ok := stmt.(*ast.IllegalStmt); ok {
					t.Errorf("Parse() produced an IllegalStmt for valid source %q", tt.src)
				}
			}
		})
	}
}

func TestForLoopDesugaring(t *testing.T) {
	program, err := parser.Parse("<test>", []byte("for (var i = 0; i < 3; i = i + 1) print i;"))
	if err != nil {
		t.Fatalf("Parse() returned unexpected error: %s", err)
	}
	if len(program.Stmts) != 1 {
		t.Fatalf("Parse() returned %d statements, want 1", len(program.Stmts))
	}
	block, ok := program.Stmts[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("Parse() for-loop did not desugar to a BlockStmt, got %T", program.Stmts[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("desugared for-loop block has %d statements, want 2 (init, while)", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarStmt); !ok {
		t.Errorf("desugared for-loop's first statement is %T, want *ast.VarStmt", block.Stmts[0])
	}
	whileStmt, ok := block.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("desugared for-loop's second statement is %T, want *ast.WhileStmt", block.Stmts[1])
	}
	whileBody, ok := whileStmt.Body.(*ast.BlockStmt)
	if !ok {
		t.Fatalf("desugared while body is %T, want *ast.BlockStmt wrapping body+update", whileStmt.Body)
	}
	if len(whileBody.Stmts) != 2 {
		t.Errorf("desugared while body has %d statements, want 2 (body, update)", len(whileBody.Stmts))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "missing semicolon", src: "var a = 1", wantErr: "expected"},
		{name: "missing left operand", src: "+ 1;", wantErr: "Expect left hand operand"},
		{name: "invalid assignment target", src: "1 = 2;", wantErr: "Invalid assignment target."},
		{name: "unexpected token", src: ");", wantErr: "Expect expression."},
		{name: "too many parameters", src: makeManyParams(), wantErr: "Can't have more than 255 parameters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse("<test>", []byte(tt.src))
			if err == nil {
				t.Fatalf("Parse() returned nil error, want one containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func makeManyParams() string {
	params := make([]string, 256)
	for i := range params {
		params[i] = fmt.Sprintf("a%d", i)
	}
	return "fun f(" + strings.Join(params, ", ") + ") {}"
}

func TestParseRecoversAfterError(t *testing.T) {
	program, err := parser.Parse("<test>", []byte("var a = ;\nvar b = 2;"))
	if err == nil {
		t.Fatalf("Parse() returned nil error for malformed source")
	}
	if len(program.Stmts) != 2 {
		t.Fatalf("Parse() returned %d statements after recovering from an error, want 2", len(program.Stmts))
	}
	if _, ok := program.Stmts[0].(*ast.IllegalStmt); !ok {
		t.Errorf("Parse()'s first statement is %T, want *ast.IllegalStmt", program.Stmts[0])
	}
	varB, ok := program.Stmts[1].(*ast.VarStmt)
	if !ok {
		t.Fatalf("Parse()'s second statement is %T, want *ast.VarStmt", program.Stmts[1])
	}
	if varB.Name.Lexeme != "b" {
		t.Errorf("Parse()'s second statement declares %q, want b", varB.Name.Lexeme)
	}
}
