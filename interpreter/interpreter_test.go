package interpreter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nwillc/golox/interpreter"
	"github.com/nwillc/golox/parser"
	"github.com/nwillc/golox/resolver"
)

// runLox parses, resolves and interprets src, returning whatever was printed and the error from each stage in turn.
func runLox(t *testing.T, src string) (string, error) {
	t.Helper()
	program, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		return "", err
	}
	depths, err := resolver.Resolve(program)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	interp := interpreter.New(interpreter.WithStdout(&out))
	err = interp.Interpret(program, depths)
	return out.String(), err
}

func TestInterpretConcreteScenarios(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantStdout string
		wantErr    string
	}{
		{
			name:       "arithmetic",
			src:        `print 1 + 2;`,
			wantStdout: "3\n",
		},
		{
			name:       "block scoping shadows and restores",
			src:        `var a = 1; { var a = 2; print a; } print a;`,
			wantStdout: "2\n1\n",
		},
		{
			name:       "closures capture by reference",
			src:        `fun make() { var i = 0; fun inc() { i = i + 1; return i; } return inc; } var c = make(); print c(); print c();`,
			wantStdout: "1\n2\n",
		},
		{
			name:       "method call on instance",
			src:        `class A { greet() { print "hi"; } } A().greet();`,
			wantStdout: "hi\n",
		},
		{
			name:       "super call",
			src:        `class A { m() { print "A"; } } class B < A { m() { super.m(); print "B"; } } B().m();`,
			wantStdout: "A\nB\n",
		},
		{
			name:       "plus operator stringifies when either operand is a string",
			src:        `print "a" + 1;`,
			wantStdout: "a1\n",
		},
		{
			name:    "reading an uninitialised variable is a runtime error",
			src:     `var a; print a;`,
			wantErr: "Uninitialized variable 'a'.",
		},
		{
			name:    "division by zero is a runtime error",
			src:     `1 / 0;`,
			wantErr: "Cannot divide by zero.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, err := runLox(t, tt.src)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Interpret() returned unexpected error: %s", err)
				}
				if stdout != tt.wantStdout {
					t.Errorf("Interpret() printed %q, want %q", stdout, tt.wantStdout)
				}
				return
			}
			if err == nil {
				t.Fatalf("Interpret() returned nil error, want one containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Interpret() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestInterpretLastStackTraceReportsFailingCalls(t *testing.T) {
	src := `
fun inner() { return 1 / 0; }
fun outer() { return inner(); }
outer();
`
	program, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("Parse() returned unexpected error: %s", err)
	}
	depths, err := resolver.Resolve(program)
	if err != nil {
		t.Fatalf("Resolve() returned unexpected error: %s", err)
	}
	interp := interpreter.New()
	if err := interp.Interpret(program, depths); err == nil {
		t.Fatal("Interpret() returned nil error for division by zero")
	}
	trace := interp.LastStackTrace()
	if !strings.Contains(trace, "<test>") {
		t.Errorf("LastStackTrace() = %q, want it to mention the failing calls' source positions", trace)
	}
}

func TestInterpretShortCircuitsLogicalOperators(t *testing.T) {
	src := `
fun sideEffect(name, value) {
  print name;
  return value;
}
if (sideEffect("left", false) and sideEffect("right", true)) {}
if (sideEffect("left", true) or sideEffect("right", true)) {}
`
	stdout, err := runLox(t, src)
	if err != nil {
		t.Fatalf("Interpret() returned unexpected error: %s", err)
	}
	want := "left\nleft\n"
	if stdout != want {
		t.Errorf("Interpret() printed %q, want %q (right-hand side of a short-circuited operator must not run)", stdout, want)
	}
}

func TestInterpretInitializerAlwaysReturnsInstance(t *testing.T) {
	src := `
class C {
  init() {
    return;
  }
}
var c = C();
print c.init();
`
	stdout, err := runLox(t, src)
	if err != nil {
		t.Fatalf("Interpret() returned unexpected error: %s", err)
	}
	if !strings.Contains(stdout, "C instance") {
		t.Errorf("Interpret() printed %q, want it to contain %q", stdout, "C instance")
	}
}

func TestInterpretUndefinedVariable(t *testing.T) {
	_, err := runLox(t, "print undefined_name;")
	if err == nil {
		t.Fatal("Interpret() returned nil error for reference to an undeclared variable")
	}
	if !strings.Contains(err.Error(), "Undefined variable 'undefined_name'.") {
		t.Errorf("Interpret() error = %q, want it to contain %q", err.Error(), "Undefined variable 'undefined_name'.")
	}
}

func TestInterpretCallArityMismatch(t *testing.T) {
	_, err := runLox(t, "fun f(a, b) { return a + b; } f(1);")
	if err == nil {
		t.Fatal("Interpret() returned nil error for an arity mismatch")
	}
	if !strings.Contains(err.Error(), "Expected 2 args but got 1.") {
		t.Errorf("Interpret() error = %q, want it to contain %q", err.Error(), "Expected 2 args but got 1.")
	}
}

func TestInterpretClassStaticMethod(t *testing.T) {
	stdout, err := runLox(t, `
class Math {
  class square(n) {
    return n * n;
  }
}
print Math.square(4);
`)
	if err != nil {
		t.Fatalf("Interpret() returned unexpected error: %s", err)
	}
	if stdout != "16\n" {
		t.Errorf("Interpret() printed %q, want %q", stdout, "16\n")
	}
}

func TestInterpretGetterMethod(t *testing.T) {
	stdout, err := runLox(t, `
class Square {
  init(side) {
    this.side = side;
  }
  area {
    return this.side * this.side;
  }
}
print Square(4).area;
`)
	if err != nil {
		t.Fatalf("Interpret() returned unexpected error: %s", err)
	}
	if stdout != "16\n" {
		t.Errorf("Interpret() printed %q, want %q", stdout, "16\n")
	}
}
