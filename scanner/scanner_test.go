package scanner_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nwillc/golox/scanner"
	"github.com/nwillc/golox/token"
)

type tok struct {
	Type    token.Type
	Lexeme  string
	Literal token.Literal
}

func scan(t *testing.T, src string) ([]tok, error) {
	t.Helper()
	tokens, err := scanner.New("<test>", []byte(src)).ScanTokens()
	got := make([]tok, len(tokens))
	for i, tt := range tokens {
		got[i] = tok{Type: tt.Type, Lexeme: tt.Lexeme, Literal: tt.Literal}
	}
	return got, err
}

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []tok
	}{
		{
			name: "empty",
			src:  "",
			want: []tok{{Type: token.EOF}},
		},
		{
			name: "punctuation",
			src:  "(){},.-+;*?:",
			want: []tok{
				{Type: token.LeftParen, Lexeme: "("},
				{Type: token.RightParen, Lexeme: ")"},
				{Type: token.LeftBrace, Lexeme: "{"},
				{Type: token.RightBrace, Lexeme: "}"},
				{Type: token.Comma, Lexeme: ","},
				{Type: token.Dot, Lexeme: "."},
				{Type: token.Minus, Lexeme: "-"},
				{Type: token.Plus, Lexeme: "+"},
				{Type: token.Semicolon, Lexeme: ";"},
				{Type: token.Star, Lexeme: "*"},
				{Type: token.Question, Lexeme: "?"},
				{Type: token.Colon, Lexeme: ":"},
				{Type: token.EOF},
			},
		},
		{
			name: "two character operators",
			src:  "! != = == < <= > >=",
			want: []tok{
				{Type: token.Bang, Lexeme: "!"},
				{Type: token.BangEqual, Lexeme: "!="},
				{Type: token.Equal, Lexeme: "="},
				{Type: token.EqualEqual, Lexeme: "=="},
				{Type: token.Less, Lexeme: "<"},
				{Type: token.LessEqual, Lexeme: "<="},
				{Type: token.Greater, Lexeme: ">"},
				{Type: token.GreaterEqual, Lexeme: ">="},
				{Type: token.EOF},
			},
		},
		{
			name: "string literal",
			src:  `"hello world"`,
			want: []tok{
				{Type: token.String, Lexeme: `"hello world"`, Literal: "hello world"},
				{Type: token.EOF},
			},
		},
		{
			name: "number literals",
			src:  "123 45.67",
			want: []tok{
				{Type: token.Number, Lexeme: "123", Literal: 123.0},
				{Type: token.Number, Lexeme: "45.67", Literal: 45.67},
				{Type: token.EOF},
			},
		},
		{
			name: "identifiers and keywords",
			src:  "foo and class this super",
			want: []tok{
				{Type: token.Ident, Lexeme: "foo"},
				{Type: token.And, Lexeme: "and"},
				{Type: token.Class, Lexeme: "class"},
				{Type: token.This, Lexeme: "this"},
				{Type: token.Super, Lexeme: "super"},
				{Type: token.EOF},
			},
		},
		{
			name: "comments and whitespace are skipped",
			src:  "// a comment\nvar /* block */ a = 1;\n",
			want: []tok{
				{Type: token.Var, Lexeme: "var"},
				{Type: token.Ident, Lexeme: "a"},
				{Type: token.Equal, Lexeme: "="},
				{Type: token.Number, Lexeme: "1", Literal: 1.0},
				{Type: token.Semicolon, Lexeme: ";"},
				{Type: token.EOF},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scan(t, tt.src)
			if err != nil {
				t.Fatalf("ScanTokens() returned unexpected error: %s", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ScanTokens() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanTokensErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unterminated string",
			src:     `"abc`,
			wantErr: "Unterminated string.",
		},
		{
			name:    "unexpected character",
			src:     "@",
			wantErr: "Unexpected character.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scan(t, tt.src)
			if err == nil {
				t.Fatalf("ScanTokens() returned nil error, want one containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ScanTokens() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
