// Package parser implements a recursive-descent parser for Lox source code.
package parser

import (
	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/loxerr"
	"github.com/nwillc/golox/scanner"
	"github.com/nwillc/golox/token"
)

// maxArgs is the limit on both parameter and argument list length. Exceeding it is reported but parsing continues.
const maxArgs = 255

// Parse scans and parses the Lox source text src, attributing diagnostics to name. It always returns a usable
// *ast.Program; if err is non-nil, the program may be incomplete and must not be passed to the resolver or
// interpreter.
func Parse(name string, src []byte) (*ast.Program, error) {
	toks, err := scanner.New(name, src).ScanTokens()
	var errs loxerr.CompileErrors
	if compileErrs, ok := err.(loxerr.CompileErrors); ok {
		errs = compileErrs
	} else if err != nil {
		errs.Add(0, "%s", err)
	}

	p := &parser{toks: toks}
	p.next()
	program := &ast.Program{Stmts: p.parseDeclsUntil(token.EOF)}
	errs = append(errs, p.errs...)
	errs.Sort()
	return program, errs.Err()
}

type parser struct {
	toks []token.Token
	pos  int
	tok  token.Token // token currently being considered

	errs loxerr.CompileErrors
}

// unwind is used as a panic value to abandon the current declaration and synchronise, without threading an error
// return through every parsing method.
type unwind struct{}

func (p *parser) next() {
	p.tok = p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) peekNext() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) check(types ...token.Type) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// match reports whether the current token is one of the given types and advances the parser if so.
func (p *parser) match(types ...token.Type) bool {
	if p.check(types...) {
		p.next()
		return true
	}
	return false
}

// expect returns the current token and advances if it has type t. Otherwise it reports an error and panics with
// unwind to abandon the current declaration.
func (p *parser) expect(t token.Type) token.Token {
	return p.expectf(t, "expected %m", t)
}

func (p *parser) expectf(t token.Type, format string, args ...any) token.Token {
	if p.tok.Type == t {
		tok := p.tok
		p.next()
		return tok
	}
	p.errs.AddToken(p.tok, format, args...)
	panic(unwind{})
}

// parseDeclsUntil parses declarations until the current token has one of the given types.
func (p *parser) parseDeclsUntil(types ...token.Type) []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(types...) {
		stmts = append(stmts, p.safelyParseDecl())
	}
	return stmts
}

func (p *parser) safelyParseDecl() (stmt ast.Stmt) {
	from := p.tok
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				to := p.sync()
				stmt = &ast.IllegalStmt{From: from, To: to}
			} else {
				panic(r)
			}
		}
	}()
	return p.parseDecl()
}

// sync advances tokens until it has consumed a ';', or the current token starts a new statement. It returns the
// last token consumed before stopping.
func (p *parser) sync() token.Token {
	finalTok := p.tok
	for {
		switch p.tok.Type {
		case token.Semicolon:
			finalTok = p.tok
			p.next()
			return finalTok
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return, token.EOF:
			return finalTok
		}
		finalTok = p.tok
		p.next()
	}
}

func (p *parser) parseDecl() ast.Stmt {
	switch {
	case p.check(token.Class):
		return p.parseClassDecl()
	case p.tok.Type == token.Fun && p.peekNext().Type == token.Ident:
		return p.parseFunDecl()
	case p.check(token.Var):
		return p.parseVarDecl()
	default:
		return p.parseStmt()
	}
}

func (p *parser) parseVarDecl() ast.Stmt {
	varTok := p.tok
	p.next()
	name := p.expectf(token.Ident, "expected variable name")
	var initialiser ast.Expr
	if p.match(token.Equal) {
		initialiser = p.parseExpr()
	}
	semicolon := p.expect(token.Semicolon)
	return &ast.VarStmt{Var: varTok, Name: name, Initialiser: initialiser, Semicolon: semicolon}
}

func (p *parser) parseFunDecl() ast.Stmt {
	funTok := p.tok
	p.next()
	name := p.expectf(token.Ident, "expected function name")
	params, body, rightBrace := p.parseFunctionTail()
	return &ast.FunctionStmt{Fun: funTok, Name: name, Params: params, Body: body, RightBrace: rightBrace}
}

// parseFunctionTail parses the "(" params? ")" "{" block "}" shared by function declarations and function
// expressions, both of which always take a parameter list.
func (p *parser) parseFunctionTail() ([]token.Token, []ast.Stmt, token.Token) {
	p.expect(token.LeftParen)
	var params []token.Token
	if !p.check(token.RightParen) {
		params = p.parseParams()
	}
	p.expect(token.RightParen)
	p.expect(token.LeftBrace)
	body := p.parseDeclsUntil(token.RightBrace, token.EOF)
	rightBrace := p.expect(token.RightBrace)
	return params, body, rightBrace
}

func (p *parser) parseParams() []token.Token {
	var params []token.Token
	for {
		if len(params) >= maxArgs {
			p.errs.AddToken(p.tok, "Can't have more than %d parameters.", maxArgs)
		}
		params = append(params, p.expectf(token.Ident, "expected parameter name"))
		if !p.match(token.Comma) {
			break
		}
	}
	return params
}

func (p *parser) parseClassDecl() ast.Stmt {
	classTok := p.tok
	p.next()
	name := p.expectf(token.Ident, "expected class name")
	var superclass *ast.VariableExpr
	if p.match(token.Less) {
		superName := p.expectf(token.Ident, "expected superclass name")
		superclass = &ast.VariableExpr{Name: superName}
	}
	p.expect(token.LeftBrace)
	var methods, classMethods []ast.MethodDecl
	for !p.check(token.RightBrace, token.EOF) {
		isClassMethod := p.match(token.Class)
		m := p.parseMethodDecl()
		if isClassMethod {
			classMethods = append(classMethods, m)
		} else {
			methods = append(methods, m)
		}
	}
	rightBrace := p.expect(token.RightBrace)
	return &ast.ClassStmt{
		Class:        classTok,
		Name:         name,
		Superclass:   superclass,
		Methods:      methods,
		ClassMethods: classMethods,
		RightBrace:   rightBrace,
	}
}

// parseMethodDecl parses IDENT ( "(" params? ")" )? "{" block "}". The absence of a parameter list marks the
// method as a getter.
func (p *parser) parseMethodDecl() ast.MethodDecl {
	name := p.expectf(token.Ident, "expected method name")
	var params []token.Token
	isGetter := true
	if p.match(token.LeftParen) {
		isGetter = false
		if !p.check(token.RightParen) {
			params = p.parseParams()
		}
		p.expect(token.RightParen)
	}
	p.expect(token.LeftBrace)
	body := p.parseDeclsUntil(token.RightBrace, token.EOF)
	rightBrace := p.expect(token.RightBrace)
	return ast.MethodDecl{Name: name, Params: params, IsGetter: isGetter, Body: body, RightBrace: rightBrace}
}

func (p *parser) parseStmt() ast.Stmt {
	switch {
	case p.check(token.Print):
		return p.parsePrintStmt()
	case p.check(token.LeftBrace):
		return p.parseBlockStmt()
	case p.check(token.If):
		return p.parseIfStmt()
	case p.check(token.While):
		return p.parseWhileStmt()
	case p.check(token.For):
		return p.parseForStmt()
	case p.check(token.Break):
		return p.parseBreakStmt()
	case p.check(token.Return):
		return p.parseReturnStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr()
	semicolon := p.expect(token.Semicolon)
	return &ast.ExprStmt{Expr: expr, Semicolon: semicolon}
}

func (p *parser) parsePrintStmt() ast.Stmt {
	printTok := p.tok
	p.next()
	expr := p.parseExpr()
	semicolon := p.expect(token.Semicolon)
	return &ast.PrintStmt{Print: printTok, Expr: expr, Semicolon: semicolon}
}

func (p *parser) parseBlockStmt() *ast.BlockStmt {
	leftBrace := p.tok
	p.next()
	stmts := p.parseDeclsUntil(token.RightBrace, token.EOF)
	rightBrace := p.expect(token.RightBrace)
	return &ast.BlockStmt{LeftBrace: leftBrace, Stmts: stmts, RightBrace: rightBrace}
}

func (p *parser) parseIfStmt() ast.Stmt {
	ifTok := p.tok
	p.next()
	p.expect(token.LeftParen)
	condition := p.parseExpr()
	p.expect(token.RightParen)
	then := p.parseStmt()
	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch = p.parseStmt()
	}
	return &ast.IfStmt{If: ifTok, Condition: condition, Then: then, Else: elseBranch}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	whileTok := p.tok
	p.next()
	p.expect(token.LeftParen)
	condition := p.parseExpr()
	p.expect(token.RightParen)
	body := p.parseStmt()
	return &ast.WhileStmt{While: whileTok, Condition: condition, Body: body}
}

// parseForStmt desugars for (init; cond; update) body into { init; while (cond) { body; update; } }, with a
// missing condition becoming literal true and a missing init/update omitting the respective wrapper.
func (p *parser) parseForStmt() ast.Stmt {
	forTok := p.tok
	p.next()
	p.expect(token.LeftParen)

	var initialise ast.Stmt
	switch {
	case p.check(token.Var):
		initialise = p.parseVarDecl()
	case p.match(token.Semicolon):
	default:
		initialise = p.parseExprStmt()
	}

	var condition ast.Expr
	if !p.check(token.Semicolon) {
		condition = p.parseExpr()
	}
	semicolon := p.expect(token.Semicolon)
	if condition == nil {
		condition = &ast.LiteralExpr{Value: token.Token{Type: token.True, Lexeme: "true", Start: forTok.Start, End: forTok.Start}}
	}

	var update ast.Expr
	if !p.check(token.RightParen) {
		update = p.parseExpr()
	}
	p.expect(token.RightParen)

	body := p.parseStmt()
	if update != nil {
		body = &ast.BlockStmt{
			LeftBrace:  forTok,
			Stmts:      []ast.Stmt{body, &ast.ExprStmt{Expr: update, Semicolon: semicolon}},
			RightBrace: semicolon,
		}
	}
	whileStmt := &ast.WhileStmt{While: forTok, Condition: condition, Body: body}

	if initialise == nil {
		return whileStmt
	}
	return &ast.BlockStmt{LeftBrace: forTok, Stmts: []ast.Stmt{initialise, whileStmt}, RightBrace: semicolon}
}

func (p *parser) parseBreakStmt() ast.Stmt {
	breakTok := p.tok
	p.next()
	semicolon := p.expect(token.Semicolon)
	return &ast.BreakStmt{Break: breakTok, Semicolon: semicolon}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	returnTok := p.tok
	p.next()
	var value ast.Expr
	if !p.check(token.Semicolon) {
		value = p.parseExpr()
	}
	semicolon := p.expect(token.Semicolon)
	return &ast.ReturnStmt{Return: returnTok, Value: value, Semicolon: semicolon}
}

// expression → comma
func (p *parser) parseExpr() ast.Expr {
	return p.parseCommaExpr()
}

func (p *parser) parseCommaExpr() ast.Expr {
	leftParen := p.tok
	first := p.parseAssignmentExpr()
	if !p.check(token.Comma) {
		return first
	}
	exprs := []ast.Expr{first}
	for p.match(token.Comma) {
		exprs = append(exprs, p.parseAssignmentExpr())
	}
	last := exprs[len(exprs)-1]
	return &ast.CommaExpr{LeftParen: leftParen, Exprs: exprs, RightParen: token.Token{Start: last.End(), End: last.End()}}
}

// assignment → ( call "." )? IDENT "=" assignment | ternary
func (p *parser) parseAssignmentExpr() ast.Expr {
	expr := p.parseTernaryExpr()
	if !p.match(token.Equal) {
		return expr
	}
	value := p.parseAssignmentExpr()
	switch left := expr.(type) {
	case *ast.VariableExpr:
		return &ast.AssignExpr{Name: left.Name, Value: value}
	case *ast.GetExpr:
		return &ast.SetExpr{Object: left.Object, Name: left.Name, Value: value}
	default:
		p.errs.AddToken(p.tok, "Invalid assignment target.")
		return expr
	}
}

func (p *parser) parseTernaryExpr() ast.Expr {
	expr := p.parseLogicOrExpr()
	if p.match(token.Question) {
		then := p.parseTernaryExpr()
		p.expect(token.Colon)
		elseExpr := p.parseTernaryExpr()
		return &ast.TernaryExpr{Condition: expr, Then: then, Else: elseExpr}
	}
	return expr
}

func (p *parser) parseLogicOrExpr() ast.Expr {
	expr := p.parseLogicAndExpr()
	for p.check(token.Or) {
		op := p.tok
		p.next()
		right := p.parseLogicAndExpr()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) parseLogicAndExpr() ast.Expr {
	expr := p.parseEqualityExpr()
	for p.check(token.And) {
		op := p.tok
		p.next()
		right := p.parseEqualityExpr()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) parseEqualityExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseComparisonExpr, token.EqualEqual, token.BangEqual)
}

func (p *parser) parseComparisonExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseTermExpr, token.Greater, token.GreaterEqual, token.Less, token.LessEqual)
}

func (p *parser) parseTermExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseFactorExpr, token.Minus, token.Plus)
}

func (p *parser) parseFactorExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseUnaryExpr, token.Slash, token.Star)
}

// parseBinaryExpr parses a left-associative chain of binary operators at one precedence level, plus the
// missing-left-operand error production for that level: if the current token is itself one of operators, the right
// operand is consumed at this level and a diagnostic is reported, without aborting the parse. A leading '-' is not
// treated this way: it is left to parseUnaryExpr as unary negation.
func (p *parser) parseBinaryExpr(next func() ast.Expr, operators ...token.Type) ast.Expr {
	var expr ast.Expr
	if p.check(operators...) && !p.check(token.Minus) {
		op := p.tok
		p.errs.AddToken(op, "Expect left hand operand for %s", op.Lexeme)
		p.next()
		right := next()
		expr = &ast.BinaryExpr{Left: &ast.LiteralExpr{Value: token.Token{Type: token.Illegal, Start: op.Start, End: op.Start}}, Op: op, Right: right}
	} else {
		expr = next()
	}
	for p.check(operators...) {
		op := p.tok
		p.next()
		right := next()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) parseUnaryExpr() ast.Expr {
	if p.check(token.Bang, token.Minus) {
		op := p.tok
		p.next()
		right := p.parseUnaryExpr()
		return &ast.UnaryExpr{Op: op, Right: right}
	}
	return p.parseCallExpr()
}

func (p *parser) parseCallExpr() ast.Expr {
	expr := p.parsePrimaryExpr()
	for {
		switch {
		case p.match(token.LeftParen):
			args := p.parseArgsUntilRightParen()
			rightParen := p.expect(token.RightParen)
			expr = &ast.CallExpr{Callee: expr, Args: args, RightParen: rightParen}
		case p.match(token.Dot):
			name := p.expectf(token.Ident, "expected property name")
			expr = &ast.GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *parser) parseArgsUntilRightParen() []ast.Expr {
	if p.check(token.RightParen) {
		return nil
	}
	var args []ast.Expr
	for {
		if len(args) >= maxArgs {
			p.errs.AddToken(p.tok, "Can't have more than %d arguments.", maxArgs)
		}
		args = append(args, p.parseAssignmentExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	return args
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch tok := p.tok; {
	case p.check(token.Number, token.String, token.True, token.False, token.Nil):
		p.next()
		return &ast.LiteralExpr{Value: tok}
	case p.check(token.Ident):
		p.next()
		return &ast.VariableExpr{Name: tok}
	case p.check(token.This):
		p.next()
		return &ast.ThisExpr{This: tok}
	case p.check(token.Super):
		p.next()
		p.expect(token.Dot)
		method := p.expectf(token.Ident, "expected superclass method name")
		return &ast.SuperExpr{Super: tok, Method: method}
	case p.check(token.Fun):
		p.next()
		params, body, rightBrace := p.parseFunctionTail()
		return &ast.FunctionExpr{Fun: tok, Params: params, Body: body, RightBrace: rightBrace}
	case p.check(token.LeftParen):
		p.next()
		return p.parseGroupOrCommaExpr(tok)
	default:
		p.errs.AddToken(tok, "Expect expression.")
		panic(unwind{})
	}
}

func (p *parser) parseGroupOrCommaExpr(leftParen token.Token) ast.Expr {
	first := p.parseAssignmentExpr()
	if !p.check(token.Comma) {
		rightParen := p.expect(token.RightParen)
		return &ast.GroupExpr{LeftParen: leftParen, Expr: first, RightParen: rightParen}
	}
	exprs := []ast.Expr{first}
	for p.match(token.Comma) {
		exprs = append(exprs, p.parseAssignmentExpr())
	}
	rightParen := p.expect(token.RightParen)
	return &ast.CommaExpr{LeftParen: leftParen, Exprs: exprs, RightParen: rightParen}
}
