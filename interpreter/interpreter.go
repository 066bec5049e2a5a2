// Package interpreter evaluates a resolved Lox abstract syntax tree against a tree of environments.
package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/loxerr"
	"github.com/nwillc/golox/token"
)

// stmtResult is the outcome of executing a statement: either nothing special, or one of the two non-local
// control-flow signals. Signals are threaded as ordinary return values through the statement-execution functions;
// only genuine runtime errors use panic/recover.
type stmtResult interface {
	stmtResult()
}

type stmtResultNone struct{}

func (stmtResultNone) stmtResult() {}

type stmtResultBreak struct{}

func (stmtResultBreak) stmtResult() {}

type stmtResultReturn struct {
	Value loxObject
}

func (stmtResultReturn) stmtResult() {}

// Interpreter evaluates statements and expressions, maintaining the global environment and call stack across
// however many top-level programs are interpreted.
type Interpreter struct {
	globals *Environment
	depths  map[ast.Expr]int
	stdout  io.Writer
	calls   *callStack
	trace   string
}

// Option configures an [Interpreter] constructed by [New].
type Option func(*Interpreter)

// WithStdout overrides the sink that print statements write to. It defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) { i.stdout = w }
}

// New constructs an Interpreter with its global scope seeded with the native functions.
func New(opts ...Option) *Interpreter {
	interp := &Interpreter{
		globals: NewEnvironment(),
		stdout:  os.Stdout,
		calls:   newCallStack(),
	}
	for name, fn := range builtinsByName {
		interp.globals.Define(name, fn)
	}
	for _, opt := range opts {
		opt(interp)
	}
	return interp
}

// Interpret executes program's statements against the interpreter's global environment, using depths (produced by
// the resolver) to resolve variable references. It returns a *loxerr.RuntimeError if execution fails; the
// interpreter's state (including anything already printed) is left as it was at the point of failure.
func (i *Interpreter) Interpret(program *ast.Program, depths map[ast.Expr]int) (err error) {
	i.depths = depths
	i.trace = ""
	i.calls.Clear()
	defer func() {
		if r := recover(); r != nil {
			if runtimeErr, ok := r.(*loxerr.RuntimeError); ok {
				i.trace = i.calls.StackTrace()
				i.calls.Clear()
				err = runtimeErr
				return
			}
			panic(r)
		}
	}()
	for _, stmt := range program.Stmts {
		i.execStmt(i.globals, stmt)
	}
	return nil
}

// LastStackTrace returns the call stack captured at the point of the most recent runtime error returned by
// Interpret, or "" if the last call succeeded or no call has been made yet.
func (i *Interpreter) LastStackTrace() string {
	return i.trace
}

func (i *Interpreter) execStmt(env *Environment, stmt ast.Stmt) stmtResult {
	switch stmt := stmt.(type) {
	case *ast.VarStmt:
		i.execVarStmt(env, stmt)
	case *ast.FunctionStmt:
		i.execFunctionStmt(env, stmt)
	case *ast.ClassStmt:
		i.execClassStmt(env, stmt)
	case *ast.ExprStmt:
		i.eval(env, stmt.Expr)
	case *ast.PrintStmt:
		i.execPrintStmt(env, stmt)
	case *ast.BlockStmt:
		return i.executeBlock(env.Child(), stmt.Stmts)
	case *ast.IfStmt:
		return i.execIfStmt(env, stmt)
	case *ast.WhileStmt:
		return i.execWhileStmt(env, stmt)
	case *ast.BreakStmt:
		return stmtResultBreak{}
	case *ast.ReturnStmt:
		return i.execReturnStmt(env, stmt)
	case *ast.IllegalStmt:
		panic(fmt.Sprintf("interpreter: encountered %T, which should have suppressed interpretation entirely", stmt))
	default:
		panic(fmt.Sprintf("interpreter: unexpected statement type %T", stmt))
	}
	return stmtResultNone{}
}

func (i *Interpreter) execVarStmt(env *Environment, stmt *ast.VarStmt) {
	var value loxObject
	if stmt.Initialiser != nil {
		value = i.eval(env, stmt.Initialiser)
	}
	env.Define(stmt.Name.Lexeme, value)
}

func (i *Interpreter) execFunctionStmt(env *Environment, stmt *ast.FunctionStmt) {
	fn := &Function{
		name:    stmt.Name.Lexeme,
		params:  tokenLexemes(stmt.Params),
		body:    stmt.Body,
		closure: env,
	}
	env.Define(stmt.Name.Lexeme, fn)
}

func (i *Interpreter) execClassStmt(env *Environment, stmt *ast.ClassStmt) {
	var superclass *Class
	if stmt.Superclass != nil {
		superVal := i.eval(env, stmt.Superclass)
		class, ok := superVal.(*Class)
		if !ok {
			panic(loxerr.NewRuntimeError(stmt.Superclass.Name, "Superclass must be a class."))
		}
		superclass = class
	}

	// Defined as nil first so that methods can refer to the class by name (e.g. to construct siblings).
	env.Define(stmt.Name.Lexeme, nil)

	methodEnv := env
	if superclass != nil {
		methodEnv = env.Child()
		methodEnv.Define(token.IdentSuper, superclass)
	}

	methods := make(map[string]*Function, len(stmt.Methods))
	for _, decl := range stmt.Methods {
		methods[decl.Name.Lexeme] = &Function{
			name:          stmt.Name.Lexeme + "." + decl.Name.Lexeme,
			params:        tokenLexemes(decl.Params),
			body:          decl.Body,
			closure:       methodEnv,
			isInitializer: decl.Name.Lexeme == token.IdentInit,
			isGetter:      decl.IsGetter,
		}
	}

	var metaclass *Class
	if len(stmt.ClassMethods) > 0 {
		classMethods := make(map[string]*Function, len(stmt.ClassMethods))
		for _, decl := range stmt.ClassMethods {
			classMethods[decl.Name.Lexeme] = &Function{
				name:     stmt.Name.Lexeme + "." + decl.Name.Lexeme,
				params:   tokenLexemes(decl.Params),
				body:     decl.Body,
				closure:  methodEnv,
				isGetter: decl.IsGetter,
			}
		}
		metaclass = NewClass(stmt.Name.Lexeme+" class", nil, classMethods, nil)
	}

	class := NewClass(stmt.Name.Lexeme, superclass, methods, metaclass)
	env.Assign(stmt.Name, class)
}

func tokenLexemes(toks []token.Token) []string {
	if len(toks) == 0 {
		return nil
	}
	names := make([]string, len(toks))
	for i, tok := range toks {
		names[i] = tok.Lexeme
	}
	return names
}

func (i *Interpreter) execPrintStmt(env *Environment, stmt *ast.PrintStmt) {
	value := i.eval(env, stmt.Expr)
	fmt.Fprintln(i.stdout, value.String())
}

func (i *Interpreter) executeBlock(env *Environment, stmts []ast.Stmt) stmtResult {
	for _, stmt := range stmts {
		result := i.execStmt(env, stmt)
		if _, ok := result.(stmtResultNone); !ok {
			return result
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) execIfStmt(env *Environment, stmt *ast.IfStmt) stmtResult {
	if isTruthy(i.eval(env, stmt.Condition)) {
		return i.execStmt(env, stmt.Then)
	}
	if stmt.Else != nil {
		return i.execStmt(env, stmt.Else)
	}
	return stmtResultNone{}
}

func (i *Interpreter) execWhileStmt(env *Environment, stmt *ast.WhileStmt) stmtResult {
	for isTruthy(i.eval(env, stmt.Condition)) {
		switch result := i.execStmt(env, stmt.Body).(type) {
		case stmtResultBreak:
			return stmtResultNone{}
		case stmtResultReturn:
			return result
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) execReturnStmt(env *Environment, stmt *ast.ReturnStmt) stmtResultReturn {
	value := loxObject(loxNil{})
	if stmt.Value != nil {
		value = i.eval(env, stmt.Value)
	}
	return stmtResultReturn{Value: value}
}

func (i *Interpreter) eval(env *Environment, expr ast.Expr) loxObject {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		return i.evalLiteralExpr(expr)
	case *ast.GroupExpr:
		return i.eval(env, expr.Expr)
	case *ast.CommaExpr:
		return i.evalCommaExpr(env, expr)
	case *ast.VariableExpr:
		return i.lookUpVariable(env, expr.Name, expr)
	case *ast.ThisExpr:
		return i.lookUpVariable(env, expr.This, expr)
	case *ast.SuperExpr:
		return i.evalSuperExpr(env, expr)
	case *ast.AssignExpr:
		return i.evalAssignExpr(env, expr)
	case *ast.CallExpr:
		return i.evalCallExpr(env, expr)
	case *ast.GetExpr:
		return i.evalGetExpr(env, expr)
	case *ast.SetExpr:
		return i.evalSetExpr(env, expr)
	case *ast.UnaryExpr:
		return i.evalUnaryExpr(env, expr)
	case *ast.BinaryExpr:
		return i.evalBinaryExpr(env, expr)
	case *ast.LogicalExpr:
		return i.evalLogicalExpr(env, expr)
	case *ast.TernaryExpr:
		return i.evalTernaryExpr(env, expr)
	case *ast.FunctionExpr:
		return i.evalFunctionExpr(env, expr)
	default:
		panic(fmt.Sprintf("interpreter: unexpected expression type %T", expr))
	}
}

func (i *Interpreter) evalLiteralExpr(expr *ast.LiteralExpr) loxObject {
	tok := expr.Value
	switch tok.Type {
	case token.Number:
		return loxNumber(tok.Literal.(float64))
	case token.String:
		return loxString(tok.Literal.(string))
	case token.True:
		return loxBool(true)
	case token.False:
		return loxBool(false)
	case token.Nil:
		return loxNil{}
	default:
		panic(fmt.Sprintf("interpreter: unexpected literal token type %s", tok.Type))
	}
}

func (i *Interpreter) evalCommaExpr(env *Environment, expr *ast.CommaExpr) loxObject {
	var value loxObject = loxNil{}
	for _, e := range expr.Exprs {
		value = i.eval(env, e)
	}
	return value
}

func (i *Interpreter) lookUpVariable(env *Environment, tok token.Token, node ast.Expr) loxObject {
	if depth, ok := i.depths[node]; ok {
		return env.GetAt(depth, tok)
	}
	return i.globals.Get(tok)
}

func (i *Interpreter) evalSuperExpr(env *Environment, expr *ast.SuperExpr) loxObject {
	depth := i.depths[expr]
	superVal := env.GetAt(depth, expr.Super)
	superclass := superVal.(*Class)
	thisVal := env.GetAt(depth-1, token.Token{Lexeme: token.IdentThis})
	instance := thisVal.(*Instance)
	method, ok := superclass.GetMethod(expr.Method.Lexeme)
	if !ok {
		panic(loxerr.NewRuntimeError(expr.Method, "Undefined property '%s'.", expr.Method.Lexeme))
	}
	return method.Bind(instance)
}

func (i *Interpreter) evalAssignExpr(env *Environment, expr *ast.AssignExpr) loxObject {
	value := i.eval(env, expr.Value)
	if depth, ok := i.depths[expr]; ok {
		env.AssignAt(depth, expr.Name, value)
	} else {
		i.globals.Assign(expr.Name, value)
	}
	return value
}

func (i *Interpreter) evalCallExpr(env *Environment, expr *ast.CallExpr) loxObject {
	callee := i.eval(env, expr.Callee)
	args := make([]loxObject, len(expr.Args))
	for j, arg := range expr.Args {
		args[j] = i.eval(env, arg)
	}

	callable, ok := callee.(loxCallable)
	if !ok {
		panic(loxerr.NewRuntimeErrorAt(expr.Callee.Start(), "Can only call functions and classes."))
	}
	if arity := callable.Arity(); len(args) != arity {
		panic(loxerr.NewRuntimeError(expr.RightParen, "Expected %d args but got %d.", arity, len(args)))
	}

	// Popped only on success, so that a panic leaves the failing frames in place for LastStackTrace to report.
	i.calls.Push(expr.Start())
	result := callable.Call(i, args)
	i.calls.Pop()
	return result
}

func (i *Interpreter) evalGetExpr(env *Environment, expr *ast.GetExpr) loxObject {
	object := i.eval(env, expr.Object)
	getter, ok := object.(loxGetter)
	if !ok {
		panic(loxerr.NewRuntimeError(expr.Name, "Only instances have properties."))
	}
	return getter.Get(i, expr.Name)
}

func (i *Interpreter) evalSetExpr(env *Environment, expr *ast.SetExpr) loxObject {
	object := i.eval(env, expr.Object)
	setter, ok := object.(loxSetter)
	if !ok {
		panic(loxerr.NewRuntimeError(expr.Name, "Only instances have fields."))
	}
	value := i.eval(env, expr.Value)
	setter.Set(expr.Name, value)
	return value
}

func (i *Interpreter) evalUnaryExpr(env *Environment, expr *ast.UnaryExpr) loxObject {
	right := i.eval(env, expr.Right)
	switch expr.Op.Type {
	case token.Bang:
		return loxBool(!isTruthy(right))
	case token.Minus:
		n, ok := right.(loxNumber)
		if !ok {
			panic(loxerr.NewRuntimeError(expr.Op, "Operand must be a number."))
		}
		return -n
	default:
		panic(fmt.Sprintf("interpreter: unexpected unary operator %s", expr.Op.Type))
	}
}

func (i *Interpreter) evalBinaryExpr(env *Environment, expr *ast.BinaryExpr) loxObject {
	left := i.eval(env, expr.Left)
	right := i.eval(env, expr.Right)

	switch expr.Op.Type {
	case token.EqualEqual:
		return loxBool(valuesEqual(left, right))
	case token.BangEqual:
		return loxBool(!valuesEqual(left, right))
	case token.Plus:
		return evalPlus(expr.Op, left, right)
	}

	leftNum, leftOK := left.(loxNumber)
	rightNum, rightOK := right.(loxNumber)
	if !leftOK || !rightOK {
		panic(loxerr.NewRuntimeError(expr.Op, "Operands must be numbers."))
	}
	switch expr.Op.Type {
	case token.Minus:
		return leftNum - rightNum
	case token.Star:
		return leftNum * rightNum
	case token.Slash:
		if rightNum == 0 {
			panic(loxerr.NewRuntimeError(expr.Op, "Cannot divide by zero."))
		}
		return leftNum / rightNum
	case token.Greater:
		return loxBool(leftNum > rightNum)
	case token.GreaterEqual:
		return loxBool(leftNum >= rightNum)
	case token.Less:
		return loxBool(leftNum < rightNum)
	case token.LessEqual:
		return loxBool(leftNum <= rightNum)
	default:
		panic(fmt.Sprintf("interpreter: unexpected binary operator %s", expr.Op.Type))
	}
}

// evalPlus implements the overloaded + operator: two numbers add; if either operand is a string, the other is
// stringified using its print representation and concatenated.
func evalPlus(op token.Token, left, right loxObject) loxObject {
	leftNum, leftIsNum := left.(loxNumber)
	rightNum, rightIsNum := right.(loxNumber)
	if leftIsNum && rightIsNum {
		return leftNum + rightNum
	}
	_, leftIsStr := left.(loxString)
	_, rightIsStr := right.(loxString)
	if leftIsStr || rightIsStr {
		return loxString(left.String() + right.String())
	}
	panic(loxerr.NewRuntimeError(op, "Operands must be numbers."))
}

// valuesEqual implements Lox's == semantics: Nil equals Nil; otherwise the operands must share both Go type and
// value, with no numeric coercion.
func valuesEqual(a, b loxObject) bool {
	if _, aNil := a.(loxNil); aNil {
		_, bNil := b.(loxNil)
		return bNil
	}
	switch a := a.(type) {
	case loxNumber:
		b, ok := b.(loxNumber)
		return ok && a == b
	case loxString:
		b, ok := b.(loxString)
		return ok && a == b
	case loxBool:
		b, ok := b.(loxBool)
		return ok && a == b
	default:
		return a == b
	}
}

func (i *Interpreter) evalLogicalExpr(env *Environment, expr *ast.LogicalExpr) loxObject {
	left := i.eval(env, expr.Left)
	switch expr.Op.Type {
	case token.Or:
		if isTruthy(left) {
			return left
		}
	case token.And:
		if !isTruthy(left) {
			return left
		}
	default:
		panic(fmt.Sprintf("interpreter: unexpected logical operator %s", expr.Op.Type))
	}
	return i.eval(env, expr.Right)
}

func (i *Interpreter) evalTernaryExpr(env *Environment, expr *ast.TernaryExpr) loxObject {
	if isTruthy(i.eval(env, expr.Condition)) {
		return i.eval(env, expr.Then)
	}
	return i.eval(env, expr.Else)
}

func (i *Interpreter) evalFunctionExpr(env *Environment, expr *ast.FunctionExpr) loxObject {
	return &Function{
		params:  tokenLexemes(expr.Params),
		body:    expr.Body,
		closure: env,
	}
}
