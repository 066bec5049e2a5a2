// Command lox is the entry point for the lox interpreter.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/interpreter"
	"github.com/nwillc/golox/parser"
	"github.com/nwillc/golox/resolver"
	"github.com/nwillc/golox/scanner"
)

const (
	exitSuccess    = 0
	exitUsageError = 64
	exitCompileErr = 65
	exitRuntimeErr = 70
)

var (
	cmd       = flag.String("c", "", "Program passed in as a string")
	printAST  = flag.Bool("p", false, "Print the parsed AST only")
	printToks = flag.Bool("tokens", false, "Print the scanned tokens only")
)

// colorizer is implemented by both loxerr.CompileErrors and loxerr.RuntimeError.
type colorizer interface {
	ColorError() string
}

// printErr writes err to stderr, using its colorized rendering when it supports one (the compile/runtime diagnostic
// types do) and stderr is a terminal.
func printErr(err error) {
	if c, ok := err.(colorizer); ok {
		fmt.Fprintln(os.Stderr, c.ColorError())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

//nolint:revive
func Usage() {
	fmt.Fprintf(os.Stderr, "Usage: lox [options] [script]\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = Usage
	flag.Parse()

	if *cmd != "" {
		os.Exit(run(*cmd, "<cmd>", interpreter.New()))
	}

	switch len(flag.Args()) {
	case 0:
		os.Exit(runREPL())
	case 1:
		os.Exit(runFile(flag.Arg(0)))
	default:
		flag.Usage()
		os.Exit(exitUsageError)
	}
}

// run scans, parses, resolves and interprets src, attributing diagnostics to name. It returns the process exit code
// corresponding to the outcome, per spec.md §6: 0 success, 65 compile error, 70 runtime error.
func run(src, name string, interp *interpreter.Interpreter) int {
	if *printToks {
		return runPrintTokens(src, name)
	}

	program, err := parser.Parse(name, []byte(src))
	if *printAST {
		ast.Print(program)
	}
	if err != nil {
		printErr(err)
		return exitCompileErr
	}
	if *printAST {
		return exitSuccess
	}

	depths, err := resolver.Resolve(program)
	if err != nil {
		printErr(err)
		return exitCompileErr
	}

	if err := interp.Interpret(program, depths); err != nil {
		printErr(err)
		if trace := interp.LastStackTrace(); trace != "" {
			fmt.Fprintln(os.Stderr, trace)
		}
		return exitRuntimeErr
	}
	return exitSuccess
}

func runPrintTokens(src, name string) int {
	toks, err := scanner.New(name, []byte(src)).ScanTokens()
	for _, tok := range toks {
		fmt.Printf("%-12s %-20q %s\n", tok.Type, tok.Lexeme, tok.Start)
	}
	if err != nil {
		printErr(err)
		return exitCompileErr
	}
	return exitSuccess
}

func runFile(name string) int {
	srcBytes, err := os.ReadFile(name)
	if err != nil {
		// Can't open the script at all: a host-level setup failure, not a Lox compile or runtime error, so it's
		// reported and exited the way any other unrecoverable host error is, rather than through loxerr/exitRuntimeErr.
		log.Fatalf("reading %s: %s", name, err)
	}
	return run(string(srcBytes), name, interpreter.New())
}

func runREPL() int {
	cfg := &readline.Config{
		Prompt: ">>> ",
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		cfg.HistoryFile = path.Join(homeDir, ".lox_history")
	} else {
		fmt.Fprintf(os.Stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		log.Fatalf("starting Lox REPL: %s", err)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stderr, "Welcome to Lox!")

	interp := interpreter.New()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			panic(fmt.Sprintf("unexpected error from readline: %s", err))
		}
		runREPLLine(line, interp)
	}

	return exitSuccess
}

// runREPLLine runs a single REPL input, per spec.md §6: a trailing ';' is appended if absent, and if the resulting
// program's last statement is a bare expression statement, the other statements are run first, then the expression
// is re-run wrapped as "var _ = <expr>; print _;" so its value is echoed and kept in the global _. A compile or runtime error is reported to stderr but
// never terminates the REPL.
func runREPLLine(line string, interp *interpreter.Interpreter) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasSuffix(line, ";") {
		line += ";"
	}

	program, err := parser.Parse("<repl>", []byte(line))
	if err != nil {
		printErr(err)
		return
	}

	echoExpr, echo := lastBareExprStmt(program)
	if echo {
		// Run everything but the echoed expression now; it's re-parsed and re-run on its own below so that it's
		// evaluated exactly once and its value can be printed.
		program.Stmts = program.Stmts[:len(program.Stmts)-1]
	}
	if !runREPLProgram(interp, program) || !echo {
		return
	}

	exprSrc := line[echoExpr.Expr.Start().Column:echoExpr.Expr.End().Column]
	echoProgram, err := parser.Parse("<repl>", []byte("var _ = "+exprSrc+"; print _;"))
	if err != nil {
		printErr(err)
		return
	}
	runREPLProgram(interp, echoProgram)
}

// runREPLProgram resolves and interprets program against interp, reporting a compile or runtime error (plus a stack
// trace for the latter) to stderr. It reports whether program ran without error.
func runREPLProgram(interp *interpreter.Interpreter, program *ast.Program) bool {
	depths, err := resolver.Resolve(program)
	if err != nil {
		printErr(err)
		return false
	}
	if err := interp.Interpret(program, depths); err != nil {
		printErr(err)
		if trace := interp.LastStackTrace(); trace != "" {
			fmt.Fprintln(os.Stderr, trace)
		}
		return false
	}
	return true
}

// lastBareExprStmt reports whether program's last statement is a bare expression statement, the case the REPL
// echoes, and returns it.
func lastBareExprStmt(program *ast.Program) (*ast.ExprStmt, bool) {
	if len(program.Stmts) == 0 {
		return nil, false
	}
	exprStmt, ok := program.Stmts[len(program.Stmts)-1].(*ast.ExprStmt)
	return exprStmt, ok
}
