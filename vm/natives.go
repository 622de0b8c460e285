package vm

import "fmt"

// registerNatives binds the host functions into the global scope and value
// pool. This runs once at VM creation, before any compile pass, so these
// entries are never subject to rollback.
func (m *VM) registerNatives() {
	m.addNative("print", 1, func(m *VM) int32 {
		fmt.Fprintf(m.OutputWriter, "%s", m.Arg(0).Format(&m.Arena))
		return 0
	})
	m.addNative("println", 1, func(m *VM) int32 {
		fmt.Fprintf(m.OutputWriter, "%s\n", m.Arg(0).Format(&m.Arena))
		return 0
	})
}

func (m *VM) addNative(name string, argc int32, fn NativeFn) {
	addr := m.AddValue(Value{
		Kind:   KindNative,
		Native: &Native{Name: name, Fn: fn, Argc: argc},
	})
	m.Global.Define(name, addr)
}
