// Package resolver performs static resolution of variable references in a Lox program, producing a map from each
// variable-reference expression to the number of enclosing-scope hops to the scope that declares it.
package resolver

import (
	"fmt"

	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/loxerr"
	"github.com/nwillc/golox/token"
)

type identState int

const (
	declared identState = iota
	defined
	read
)

type identInfo struct {
	tok   token.Token
	state identState
}

type scope map[string]*identInfo

type funcType int

const (
	funcTypeNone funcType = iota
	funcTypeFunction
	funcTypeMethod
	funcTypeInitializer
)

type classType int

const (
	classTypeNone classType = iota
	classTypeClass
	classTypeSubclass
)

type resolver struct {
	scopes *stack[scope]
	depths map[ast.Expr]int
	errs   loxerr.CompileErrors

	currentFunc  funcType
	currentClass classType
	loopDepth    int
}

// Resolve resolves every variable reference in program, returning a map from each reference expression to the
// number of environment hops between the point of use and the scope which declares it. An expression absent from
// the map refers to a global.
func Resolve(program *ast.Program) (map[ast.Expr]int, error) {
	r := &resolver{scopes: newStack[scope](), depths: map[ast.Expr]int{}}
	r.resolveStmts(program.Stmts)
	return r.depths, r.errs.Err()
}

func (r *resolver) beginScope() {
	r.scopes.Push(scope{})
}

// endScope pops the innermost scope, reporting every local whose state never advanced past defined: it was declared
// and given a value but never read.
func (r *resolver) endScope() {
	sc := r.scopes.Pop()
	for _, info := range sc {
		if info.state == defined {
			r.errs.AddToken(info.tok, "Unused local variable.")
		}
	}
}

// declare introduces name into the innermost scope in the declared state. It errors if name is already declared in
// that scope. A no-op at global scope, since globals aren't tracked for the unused-variable diagnostic.
func (r *resolver) declare(tok token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	sc := r.scopes.Peek()
	if _, ok := sc[tok.Lexeme]; ok {
		r.errs.AddToken(tok, "Already variable with this name in this scope.")
		return
	}
	sc[tok.Lexeme] = &identInfo{tok: tok, state: declared}
}

// define marks name as having a value in the innermost scope.
func (r *resolver) define(tok token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	sc := r.scopes.Peek()
	if info, ok := sc[tok.Lexeme]; ok {
		info.state = defined
	} else {
		sc[tok.Lexeme] = &identInfo{tok: tok, state: defined}
	}
}

// declareExempt introduces name directly in the read state, so it never trips the unused-local diagnostic.
// Parameters and function/class declarations are exempted because they're defined through this path, not
// declare-then-define.
func (r *resolver) declareExempt(tok token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	r.scopes.Peek()[tok.Lexeme] = &identInfo{tok: tok, state: read}
}

// resolveLocal searches the scope stack inner-to-outer for name, recording the hop count in the depth map on a
// match. isRead transitions the matched identifier's state to read; an assignment target should pass false.
func (r *resolver) resolveLocal(node ast.Expr, tok token.Token, isRead bool) {
	for i := r.scopes.Len() - 1; i >= 0; i-- {
		sc := r.scopes.Index(i)
		info, ok := sc[tok.Lexeme]
		if !ok {
			continue
		}
		r.depths[node] = r.scopes.Len() - 1 - i
		if isRead {
			info.state = read
		}
		return
	}
	// Not found in any scope: treat as global.
}

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.VarStmt:
		r.resolveVarStmt(stmt)
	case *ast.FunctionStmt:
		r.resolveFunctionStmt(stmt)
	case *ast.ClassStmt:
		r.resolveClassStmt(stmt)
	case *ast.ExprStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(stmt.Stmts)
		r.endScope()
	case *ast.IfStmt:
		r.resolveExpr(stmt.Condition)
		r.resolveStmt(stmt.Then)
		if stmt.Else != nil {
			r.resolveStmt(stmt.Else)
		}
	case *ast.WhileStmt:
		r.loopDepth++
		r.resolveExpr(stmt.Condition)
		r.resolveStmt(stmt.Body)
		r.loopDepth--
	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.errs.AddToken(stmt.Break, "Must be inside a loop to use 'break'.")
		}
	case *ast.ReturnStmt:
		r.resolveReturnStmt(stmt)
	case *ast.IllegalStmt:
		// Produced only when the parser already reported an error, which suppresses this stage entirely; nothing
		// to resolve if we're ever handed one anyway.
	default:
		panic(fmt.Sprintf("resolver: unexpected statement type %T", stmt))
	}
}

func (r *resolver) resolveVarStmt(stmt *ast.VarStmt) {
	r.declare(stmt.Name)
	if stmt.Initialiser != nil {
		r.resolveExpr(stmt.Initialiser)
	}
	r.define(stmt.Name)
}

func (r *resolver) resolveFunctionStmt(stmt *ast.FunctionStmt) {
	r.declareExempt(stmt.Name)
	r.resolveFunction(stmt.Params, stmt.Body, funcTypeFunction)
}

func (r *resolver) resolveFunction(params []token.Token, body []ast.Stmt, typ funcType) {
	enclosingFunc := r.currentFunc
	r.currentFunc = typ
	r.beginScope()
	for _, param := range params {
		r.declareExempt(param)
	}
	r.resolveStmts(body)
	r.endScope()
	r.currentFunc = enclosingFunc
}

func (r *resolver) resolveClassStmt(stmt *ast.ClassStmt) {
	r.declareExempt(stmt.Name)

	enclosingClass := r.currentClass
	r.currentClass = classTypeClass

	hasSuperclass := stmt.Superclass != nil
	if hasSuperclass {
		if stmt.Superclass.Name.Lexeme == stmt.Name.Lexeme {
			r.errs.AddToken(stmt.Superclass.Name, "A class can't inherit from itself.")
		}
		r.resolveExpr(stmt.Superclass)
		r.currentClass = classTypeSubclass
		r.beginScope()
		r.declareExempt(token.Token{Lexeme: token.IdentSuper})
	}

	r.beginScope()
	r.declareExempt(token.Token{Lexeme: token.IdentThis})
	for _, m := range stmt.Methods {
		methodType := funcTypeMethod
		if m.Name.Lexeme == token.IdentInit {
			methodType = funcTypeInitializer
		}
		r.resolveFunction(m.Params, m.Body, methodType)
	}
	r.endScope()

	for _, m := range stmt.ClassMethods {
		r.beginScope()
		r.declareExempt(token.Token{Lexeme: token.IdentThis})
		r.resolveFunction(m.Params, m.Body, funcTypeMethod)
		r.endScope()
	}

	if hasSuperclass {
		r.endScope()
	}

	r.currentClass = enclosingClass
}

func (r *resolver) resolveReturnStmt(stmt *ast.ReturnStmt) {
	if r.currentFunc == funcTypeNone {
		r.errs.AddToken(stmt.Return, "Can't return from top-level code.")
	}
	if r.currentFunc == funcTypeInitializer && stmt.Value != nil {
		r.errs.AddToken(stmt.Return, "Can't return a value from an initializer.")
	}
	if stmt.Value != nil {
		r.resolveExpr(stmt.Value)
	}
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		// Nothing to resolve.
	case *ast.GroupExpr:
		r.resolveExpr(expr.Expr)
	case *ast.CommaExpr:
		for _, e := range expr.Exprs {
			r.resolveExpr(e)
		}
	case *ast.VariableExpr:
		r.resolveVariableExpr(expr)
	case *ast.ThisExpr:
		if r.currentClass == classTypeNone {
			r.errs.AddToken(expr.This, "Can't use 'this' outside of a class.")
		}
		r.resolveLocal(expr, expr.This, true)
	case *ast.SuperExpr:
		r.resolveSuperExpr(expr)
	case *ast.AssignExpr:
		r.resolveExpr(expr.Value)
		r.resolveLocal(expr, expr.Name, false)
	case *ast.CallExpr:
		r.resolveExpr(expr.Callee)
		for _, arg := range expr.Args {
			r.resolveExpr(arg)
		}
	case *ast.GetExpr:
		r.resolveExpr(expr.Object)
	case *ast.SetExpr:
		r.resolveExpr(expr.Object)
		r.resolveExpr(expr.Value)
	case *ast.UnaryExpr:
		r.resolveExpr(expr.Right)
	case *ast.BinaryExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.TernaryExpr:
		r.resolveExpr(expr.Condition)
		r.resolveExpr(expr.Then)
		r.resolveExpr(expr.Else)
	case *ast.FunctionExpr:
		r.resolveFunction(expr.Params, expr.Body, funcTypeFunction)
	default:
		panic(fmt.Sprintf("resolver: unexpected expression type %T", expr))
	}
}

func (r *resolver) resolveVariableExpr(expr *ast.VariableExpr) {
	if r.scopes.Len() > 0 {
		if info, ok := r.scopes.Peek()[expr.Name.Lexeme]; ok && info.state == declared {
			r.errs.AddToken(expr.Name, "Can't read local variable in its own initializer.")
		}
	}
	r.resolveLocal(expr, expr.Name, true)
}

func (r *resolver) resolveSuperExpr(expr *ast.SuperExpr) {
	switch r.currentClass {
	case classTypeNone:
		r.errs.AddToken(expr.Super, "Can't use 'super' outside of a class.")
	case classTypeClass:
		r.errs.AddToken(expr.Super, "Can't use 'super' in a class with no superclass.")
	}
	r.resolveLocal(expr, expr.Super, true)
}
