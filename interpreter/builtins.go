package interpreter

import "time"

// builtinsByName holds the native functions seeded into every interpreter's global scope.
var builtinsByName = map[string]*nativeFunction{
	"clock": {
		name:  "clock",
		arity: 0,
		fn: func([]loxObject) loxObject {
			return loxNumber(float64(time.Now().UnixNano()) / float64(time.Second))
		},
	},
	"type": {
		name:  "type",
		arity: 1,
		fn: func(args []loxObject) loxObject {
			return loxString(args[0].Type())
		},
	},
}
