// Package repl implements the interactive front-ends of the interpreter:
// a plain command-line loop, a tview terminal UI, and a fyne GUI. All three
// share the same incremental evaluation path, so definitions persist across
// entries.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/funk-lang/funk/loader"
	"github.com/funk-lang/funk/vm"
)

// Options configures a session
type Options struct {
	Prompt       string
	HistorySize  int
	ShowStack    bool
	BytecodeFile string
}

// Repl holds the state of one interactive session
type Repl struct {
	VM      *vm.VM
	History *EntryHistory

	Prompt       string
	ShowStack    bool
	BytecodeFile string

	// LastResult is a snapshot of the stack produced by the most recent
	// entry, taken before the stack is cleared (the TUI and GUI render it)
	LastResult []vm.Value
}

// New creates a session around the given VM
func New(m *vm.VM, opts Options) *Repl {
	prompt := opts.Prompt
	if prompt == "" {
		prompt = "> "
	}
	return &Repl{
		VM:           m,
		History:      NewEntryHistory(opts.HistorySize),
		Prompt:       prompt,
		ShowStack:    opts.ShowStack,
		BytecodeFile: opts.BytecodeFile,
	}
}

// Eval runs one source entry against the VM: parse, compile (with rollback
// on error), execute from the saved instruction pointer, report the
// resulting stack, and clear it for the next entry.
func (r *Repl) Eval(source string) error {
	err := loader.Run(r.VM, "stdin", source, loader.Options{BytecodeFile: r.BytecodeFile})
	if err != nil {
		r.LastResult = nil
		return err
	}

	r.LastResult = append([]vm.Value(nil), r.VM.StackValues()...)
	if r.ShowStack {
		r.VM.PrintStack(r.VM.OutputWriter)
	}
	r.VM.ClearStack()
	return nil
}

// Reset discards all program state and starts over with a fresh VM,
// keeping the configured output writer.
func (r *Repl) Reset() {
	out := r.VM.OutputWriter
	r.VM = vm.NewVM()
	r.VM.OutputWriter = out
	r.LastResult = nil
}

// printError writes a diagnostic, making sure it ends with a newline
// (position-carrying errors render their own caret block, runtime errors
// are a single line).
func printError(w io.Writer, err error) {
	msg := err.Error()
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(w, msg)
}
