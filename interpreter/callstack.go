package interpreter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nwillc/golox/ansi"
	"github.com/nwillc/golox/token"
)

// callStack tracks the call-expression positions the interpreter is currently nested inside, innermost last. It
// backs StackTrace, an additive diagnostic not required by the runtime-error contract in §6.
type callStack struct {
	positions []token.Position
}

func newCallStack() *callStack {
	return &callStack{}
}

func (cs *callStack) Push(pos token.Position) {
	cs.positions = append(cs.positions, pos)
}

func (cs *callStack) Pop() {
	cs.positions = cs.positions[:len(cs.positions)-1]
}

// Clear empties the stack, ready for the next top-level Interpret call.
func (cs *callStack) Clear() {
	cs.positions = cs.positions[:0]
}

// StackTrace renders the current call stack, most recent call first, for tools (such as the REPL) that want more
// context than the bare runtime-error message.
func (cs *callStack) StackTrace() string {
	if len(cs.positions) == 0 {
		return ""
	}
	var b strings.Builder
	ansi.Fprint(&b, "${BOLD}call stack (most recent call first):${RESET_BOLD}\n")
	width := 0
	locations := make([]string, len(cs.positions))
	for i, pos := range cs.positions {
		locations[i] = fmt.Sprintf("%m", pos)
		width = max(width, runewidth.StringWidth(locations[i]))
	}
	for i := len(cs.positions) - 1; i >= 0; i-- {
		fmt.Fprint(&b, "  ", runewidth.FillRight(locations[i], width))
		if i > 0 {
			fmt.Fprintln(&b)
		}
	}
	return b.String()
}
