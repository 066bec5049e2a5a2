package ast

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/nwillc/golox/token"
)

// Print prints an AST Node to stdout as an indented s-expression.
func Print(node Node) {
	fmt.Println(Sprint(node))
}

// Sprint formats an AST Node as an indented s-expression. It is driven by reflection so that new node types picked up
// by the parser don't need a matching case added here.
func Sprint(node Node) string {
	return sprint(reflect.ValueOf(node), 0)
}

func sprint(v reflect.Value, depth int) string {
	// Unwrap interface-typed fields and slice elements (Expr, Stmt) to the node they hold.
	if v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || ((v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil()) {
		return "nil"
	}

	switch value := v.Interface().(type) {
	case token.Token:
		return value.Lexeme
	case *LiteralExpr:
		return value.Value.Lexeme
	case *VariableExpr:
		return value.Name.Lexeme
	}

	t := v.Type()
	val := v
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		val = val.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Sprint(v.Interface())
	}

	var children []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldVal := val.Field(i)
		switch field.Type.Kind() {
		case reflect.Slice:
			if fieldVal.Len() == 0 {
				children = append(children, fmt.Sprintf("(%s [])", field.Name))
				continue
			}
			var elems []string
			for j := 0; j < fieldVal.Len(); j++ {
				elems = append(elems, indent(sprint(fieldVal.Index(j), depth+2), depth+2))
			}
			children = append(children, fmt.Sprintf("(%s [\n%s])", field.Name, strings.Join(elems, "\n")))
		default:
			children = append(children, fmt.Sprintf("(%s %s)", field.Name, sprint(fieldVal, depth+1)))
		}
	}

	return sexpr(t.Name(), depth, children...)
}

func indent(s string, depth int) string {
	return strings.Repeat("  ", depth) + s
}

func sexpr(name string, depth int, children ...string) string {
	var b strings.Builder
	fmt.Fprint(&b, "(", name)
	for _, child := range children {
		fmt.Fprint(&b, "\n", strings.Repeat("  ", depth+1), child)
	}
	fmt.Fprint(&b, ")")
	return b.String()
}
