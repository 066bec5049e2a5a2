package interpreter

import (
	"github.com/nwillc/golox/loxerr"
	"github.com/nwillc/golox/token"
)

// uninitialized is the sentinel slot value written by a var declaration with no initialiser. Reading it is a
// runtime error distinct from reading an undeclared name.
type uninitialized struct{}

func (uninitialized) String() string { return "uninitialized" }
func (uninitialized) Type() loxType  { return loxTypeNil }

// Environment is a mapping from identifier to value, with an optional enclosing parent forming a chain. Lookup and
// assignment walk the parent chain; definition always writes the innermost scope.
type Environment struct {
	parent *Environment
	values map[string]loxObject
}

// NewEnvironment returns a fresh environment with no parent, suitable for use as the global scope.
func NewEnvironment() *Environment {
	return &Environment{values: map[string]loxObject{}}
}

// Child returns a new environment enclosed by e.
func (e *Environment) Child() *Environment {
	return &Environment{parent: e, values: map[string]loxObject{}}
}

// Define binds name to value in e's own scope, shadowing any binding of the same name in an enclosing scope.
func (e *Environment) Define(name string, value loxObject) {
	if value == nil {
		value = uninitialized{}
	}
	e.values[name] = value
}

// Get returns the value bound to tok.Lexeme, walking the parent chain. It panics with a *loxerr.RuntimeError if the
// name is not declared in any scope, or is declared but holds the uninitialised sentinel.
func (e *Environment) Get(tok token.Token) loxObject {
	for env := e; env != nil; env = env.parent {
		value, ok := env.values[tok.Lexeme]
		if !ok {
			continue
		}
		if _, isUninitialized := value.(uninitialized); isUninitialized {
			panic(loxerr.NewRuntimeError(tok, "Uninitialized variable '%s'.", tok.Lexeme))
		}
		return value
	}
	panic(loxerr.NewRuntimeError(tok, "Undefined variable '%s'.", tok.Lexeme))
}

// GetAt returns the value bound to tok.Lexeme in the environment distance hops up the parent chain from e.
func (e *Environment) GetAt(distance int, tok token.Token) loxObject {
	return e.ancestor(distance).Get(tok)
}

// Assign rebinds tok.Lexeme to value in the nearest enclosing scope where it is already declared. It panics with a
// *loxerr.RuntimeError if no such scope exists.
func (e *Environment) Assign(tok token.Token, value loxObject) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[tok.Lexeme]; ok {
			env.values[tok.Lexeme] = value
			return
		}
	}
	panic(loxerr.NewRuntimeError(tok, "Undefined variable '%s'.", tok.Lexeme))
}

// AssignAt rebinds tok.Lexeme to value in the environment distance hops up the parent chain from e.
func (e *Environment) AssignAt(distance int, tok token.Token, value loxObject) {
	e.ancestor(distance).values[tok.Lexeme] = value
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for range distance {
		env = env.parent
	}
	return env
}
