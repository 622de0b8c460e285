package compiler

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/funk-lang/funk/vm"
)

// WriteBytecode writes a human-readable disassembly of the whole program to
// path. Each line has the form `NNNN opcode  operand [ (value = ...) ]`.
func WriteBytecode(m *vm.VM, path string) error {
	f, err := os.Create(path) // #nosec G304 -- user-specified dump path
	if err != nil {
		return fmt.Errorf("failed to create bytecode dump: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close bytecode dump: %v\n", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	Disassemble(m, w)
	return w.Flush()
}

// Disassemble renders the program to w
func Disassemble(m *vm.VM, w io.Writer) {
	for i := 0; i < len(m.Program); i++ {
		op := m.Program[i]
		info := vm.Info(op)

		if info.Argc == 0 {
			fmt.Fprintf(w, "%.4d %s\n", i, info.Name)
			continue
		}

		fmt.Fprintf(w, "%.4d %-14s", i, info.Name)
		if i+1 >= len(m.Program) {
			fmt.Fprintf(w, "<truncated>\n")
			return
		}
		arg := m.Program[i+1]
		if info.Addr && arg >= 0 && arg < int32(len(m.Values)) {
			fmt.Fprintf(w, "%d (value = %s)", arg, m.Values[arg].Format(&m.Arena))
		} else {
			fmt.Fprintf(w, "%d", arg)
		}
		fmt.Fprintf(w, "\n")
		i += info.Argc
	}
}
