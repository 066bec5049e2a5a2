package interpreter

import (
	"fmt"
	"strconv"

	"github.com/nwillc/golox/ast"
	"github.com/nwillc/golox/loxerr"
	"github.com/nwillc/golox/token"
)

// loxType names a runtime value's type for use in diagnostics.
type loxType string

const (
	loxTypeNil      loxType = "nil"
	loxTypeBool     loxType = "bool"
	loxTypeNumber   loxType = "number"
	loxTypeString   loxType = "string"
	loxTypeFunction loxType = "function"
	loxTypeClass    loxType = "class"
	loxTypeInstance loxType = "instance"
)

// loxObject is a Lox runtime value. String returns the representation used by the print statement.
type loxObject interface {
	String() string
	Type() loxType
}

// loxCallable is implemented by values which can appear as the callee of a call expression.
type loxCallable interface {
	Arity() int
	Call(interp *Interpreter, args []loxObject) loxObject
}

// loxGetter is implemented by values which support a.name property access.
type loxGetter interface {
	Get(interp *Interpreter, name token.Token) loxObject
}

// loxSetter is implemented by values which support a.name = value property assignment.
type loxSetter interface {
	Set(name token.Token, value loxObject)
}

// uninitialized is the sentinel slot value for a var declaration with no initialiser; Environment.Get raises a
// runtime error if it ever reaches here.
type loxNil struct{}

var _ loxObject = loxNil{}

func (loxNil) String() string { return "nil" }
func (loxNil) Type() loxType  { return loxTypeNil }
func (loxNil) IsTruthy() bool { return false }

type loxBool bool

var _ loxObject = loxBool(false)

func (b loxBool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (loxBool) Type() loxType   { return loxTypeBool }
func (b loxBool) IsTruthy() bool { return bool(b) }

type loxNumber float64

var _ loxObject = loxNumber(0)

func (n loxNumber) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}
func (loxNumber) Type() loxType { return loxTypeNumber }
func (loxNumber) IsTruthy() bool { return true }

type loxString string

var _ loxObject = loxString("")

func (s loxString) String() string { return string(s) }
func (loxString) Type() loxType    { return loxTypeString }
func (loxString) IsTruthy() bool   { return true }

// truther is implemented by the primitive value types (nil, bool, number, string). A loxObject that doesn't
// implement it (functions, classes, instances) is truthy.
type truther interface {
	IsTruthy() bool
}

// isTruthy reports whether v is truthy: Nil and false are falsy, everything else (including 0 and "") is truthy.
func isTruthy(v loxObject) bool {
	if t, ok := v.(truther); ok {
		return t.IsTruthy()
	}
	return true
}

// nativeFunction is a host-provided callable, such as clock().
type nativeFunction struct {
	name  string
	arity int
	fn    func(args []loxObject) loxObject
}

var (
	_ loxObject   = &nativeFunction{}
	_ loxCallable = &nativeFunction{}
)

func (f *nativeFunction) String() string  { return "<native fn>" }
func (f *nativeFunction) Type() loxType   { return loxTypeFunction }
func (f *nativeFunction) Arity() int      { return f.arity }
func (f *nativeFunction) Call(_ *Interpreter, args []loxObject) loxObject {
	return f.fn(args)
}

// Function is a Lox function or method: a parameter list and body closing over the environment in which it was
// declared.
type Function struct {
	name          string
	params        []string
	body          []ast.Stmt
	closure       *Environment
	isInitializer bool
	isGetter      bool
}

var (
	_ loxObject   = &Function{}
	_ loxCallable = &Function{}
)

func (f *Function) String() string {
	if f.name == "" {
		return "<fn (anonymous)>"
	}
	return fmt.Sprintf("<fn %s>", f.name)
}

func (f *Function) Type() loxType { return loxTypeFunction }

func (f *Function) Arity() int { return len(f.params) }

// Bind returns a copy of f whose closure is a fresh environment defining "this" atop f's original closure.
func (f *Function) Bind(instance *Instance) *Function {
	bound := *f
	env := f.closure.Child()
	env.Define(token.IdentThis, instance)
	bound.closure = env
	return &bound
}

// Call executes f's body in a new environment parented on its closure, with each parameter bound to the
// corresponding argument. Non-local return is unwound via a statement-result signal, not panic.
func (f *Function) Call(interp *Interpreter, args []loxObject) loxObject {
	env := f.closure.Child()
	for i, param := range f.params {
		env.Define(param, args[i])
	}
	result := interp.executeBlock(env, f.body)
	if f.isInitializer {
		return f.closure.GetAt(0, token.Token{Lexeme: token.IdentThis})
	}
	if ret, ok := result.(stmtResultReturn); ok {
		return ret.Value
	}
	return loxNil{}
}

// Class is a Lox class: an instance method table plus an optional superclass. Its metaclass is itself a *Class
// holding the class (static) methods, so static-method lookup reuses the same getter machinery as instance lookup.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
	Metaclass  *Class
	fields     map[string]loxObject
}

// NewClass constructs a class with the given instance methods table. metaclass may be nil for a class with no class
// methods.
func NewClass(name string, superclass *Class, methods map[string]*Function, metaclass *Class) *Class {
	return &Class{Name: name, Superclass: superclass, Methods: methods, Metaclass: metaclass, fields: map[string]loxObject{}}
}

var (
	_ loxObject   = &Class{}
	_ loxCallable = &Class{}
	_ loxGetter   = &Class{}
	_ loxSetter   = &Class{}
)

func (c *Class) String() string { return c.Name }
func (c *Class) Type() loxType  { return loxTypeClass }

func (c *Class) Arity() int {
	if init, ok := c.GetMethod(token.IdentInit); ok {
		return init.Arity()
	}
	return 0
}

// Call constructs a new Instance of c, running its init method (if any) against args.
func (c *Class) Call(interp *Interpreter, args []loxObject) loxObject {
	instance := NewInstance(c)
	if init, ok := c.GetMethod(token.IdentInit); ok {
		init.Bind(instance).Call(interp, args)
	}
	return instance
}

// GetMethod looks up name in c's method table, falling back to the superclass chain.
func (c *Class) GetMethod(name string) (*Function, bool) {
	if m, ok := c.Methods[name]; ok {
		return m, true
	}
	if c.Superclass != nil {
		return c.Superclass.GetMethod(name)
	}
	return nil, false
}

// Get implements static member access, such as Foo.bar, by consulting c's metaclass.
func (c *Class) Get(interp *Interpreter, name token.Token) loxObject {
	if v, ok := c.fields[name.Lexeme]; ok {
		return v
	}
	if c.Metaclass != nil {
		if method, ok := c.Metaclass.GetMethod(name.Lexeme); ok {
			// Bind "this" to the class itself, matching the this-bearing scope the resolver gives class methods.
			bound := *method
			env := method.closure.Child()
			env.Define(token.IdentThis, c)
			bound.closure = env
			if method.isGetter {
				return bound.Call(interp, nil)
			}
			return &bound
		}
	}
	panic(loxerr.NewRuntimeError(name, "Undefined property '%s'.", name.Lexeme))
}

// Set stores a field directly on the class value itself, parallel to Instance.Set.
func (c *Class) Set(name token.Token, value loxObject) {
	c.fields[name.Lexeme] = value
}

// Instance is an instantiation of a Class: a reference to its class plus a mutable field table.
type Instance struct {
	Class  *Class
	fields map[string]loxObject
}

// NewInstance constructs an Instance of class with no fields set.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, fields: map[string]loxObject{}}
}

var (
	_ loxObject = &Instance{}
	_ loxGetter = &Instance{}
	_ loxSetter = &Instance{}
)

func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name) }
func (i *Instance) Type() loxType  { return loxTypeInstance }

// Get resolves a field first, falling back to a bound method looked up through the class chain. A method with no
// parameter list (a getter) is invoked immediately with no arguments.
func (i *Instance) Get(interp *Interpreter, name token.Token) loxObject {
	if v, ok := i.fields[name.Lexeme]; ok {
		return v
	}
	if method, ok := i.Class.GetMethod(name.Lexeme); ok {
		bound := method.Bind(i)
		if method.isGetter {
			return bound.Call(interp, nil)
		}
		return bound
	}
	panic(loxerr.NewRuntimeError(name, "Undefined property '%s'.", name.Lexeme))
}

// Set stores value in i's field table under name, creating or overwriting the field.
func (i *Instance) Set(name token.Token, value loxObject) {
	i.fields[name.Lexeme] = value
}
