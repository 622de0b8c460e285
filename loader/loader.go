// Package loader drives one parse-compile-execute pass against a VM,
// preserving the interactive continuation state between passes.
package loader

import (
	"github.com/funk-lang/funk/compiler"
	"github.com/funk-lang/funk/parser"
	"github.com/funk-lang/funk/vm"
)

// Options configures a pass
type Options struct {
	// BytecodeFile receives the disassembly dump after a successful
	// compile. Empty disables the dump.
	BytecodeFile string
}

// Run parses, compiles, and executes one source entry. Compiled
// definitions and bound values persist on the VM, so successive calls
// share state: each pass resumes from the saved instruction pointer and
// ends at its own trailing RETURN, which is then shrunk off so the next
// pass appends directly after the last real instruction.
//
// On a parse or compile error the VM is unchanged (compile state rolls
// back). On a runtime error the stack is cleared and the instruction
// pointer still advances past the failing code, so the VM stays usable.
//
// After a successful pass the stack holds the produced values; the caller
// prints them as it sees fit and must call ClearStack before the next
// entry.
func Run(m *vm.VM, filename, source string, opts Options) error {
	tree, err := parser.ParseSource(source, filename)
	if err != nil {
		return err
	}

	c := compiler.New(m)
	c.BytecodeFile = opts.BytecodeFile

	before := m.ProgramSize()
	if err := c.Compile(tree, source); err != nil {
		return err
	}

	if m.ProgramSize() > before {
		runErr := m.Run()
		m.ShrinkReturn()
		m.SavedIP = m.ProgramSize()
		if runErr != nil {
			m.ClearStack()
			return runErr
		}
	}
	return nil
}

// RunFile executes a whole source file as one pass
func RunFile(m *vm.VM, path string, opts Options) error {
	source, err := parser.ReadSource(path)
	if err != nil {
		return err
	}
	return Run(m, path, source, opts)
}
