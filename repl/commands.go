package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/funk-lang/funk/compiler"
)

// Command executes a session command (an input line starting with ':').
// Returns true when the session should end.
func (r *Repl) Command(line string, w io.Writer) bool {
	parts := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(parts) == 0 {
		return false
	}

	cmd := strings.ToLower(parts[0])
	switch cmd {
	case "help", "h", "?":
		r.cmdHelp(w)

	case "quit", "q", "exit":
		return true

	case "stack":
		if len(r.LastResult) == 0 {
			fmt.Fprintln(w, "stack is empty")
			break
		}
		for _, v := range r.LastResult {
			fmt.Fprintf(w, "%s\n", v.Format(&r.VM.Arena))
		}

	case "values", "v":
		r.cmdValues(w)

	case "bytecode", "b":
		if len(r.VM.Program) == 0 {
			fmt.Fprintln(w, "no bytecode compiled yet")
			break
		}
		compiler.Disassemble(r.VM, w)

	case "history":
		for i, entry := range r.History.GetAll() {
			fmt.Fprintf(w, "%4d  %s\n", i+1, entry)
		}

	case "reset":
		r.Reset()
		fmt.Fprintln(w, "state cleared")

	default:
		fmt.Fprintf(w, "unknown command :%s (type :help for available commands)\n", cmd)
	}
	return false
}

// cmdValues dumps the value pool
func (r *Repl) cmdValues(w io.Writer) {
	for addr, v := range r.VM.Values {
		fmt.Fprintf(w, "%4d  %-10s %s\n", addr, v.Kind, v.Format(&r.VM.Arena))
	}
}

// cmdHelp prints the command summary
func (r *Repl) cmdHelp(w io.Writer) {
	fmt.Fprint(w, `Enter expressions to evaluate, e.g. (+ 1 2) or (let a 10).

Session commands:
  :help, :h, :?   Show this help
  :stack          Show the result stack of the last entry
  :values, :v     Dump the value pool
  :bytecode, :b   Disassemble the compiled program
  :history        Show entry history
  :reset          Discard all definitions and compiled code
  :quit, :q       Exit
`)
}
