package vm

import "fmt"

// Kind tags a runtime value
type Kind int

const (
	KindUnknown Kind = iota
	KindNumber
	KindString
	KindFunction
	KindNative
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindNumber:   "int",
	KindString:   "string",
	KindFunction: "function",
	KindNative:   "native",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Function describes a bytecode function: the instruction index of the first
// instruction of its body and its declared parameter count.
type Function struct {
	Addr int32
	Argc int32
}

// NativeFn is a host function. It reads its arguments from the VM stack
// (slots base..base+argc-1) and returns the number of values it produced on
// the stack.
type NativeFn func(m *VM) int32

// Native describes a host function value
type Native struct {
	Name string
	Fn   NativeFn
	Argc int32
}

// StringRef is a borrowed view into the VM's string arena
type StringRef struct {
	Off int32
	Len int32
}

// Value is a tagged runtime value. Exactly the fields implied by Kind are
// meaningful; the rest stay zero.
type Value struct {
	Kind   Kind
	Number int32
	Str    StringRef
	Func   Function
	Native *Native
}

// NumberValue creates a number value
func NumberValue(n int32) Value {
	return Value{Kind: KindNumber, Number: n}
}

// Truthy reports whether the value is true under COND_JUMP: a number other
// than zero. All other kinds are false.
func (v Value) Truthy() bool {
	return v.Kind == KindNumber && v.Number != 0
}

// Callable reports whether the value can be invoked
func (v Value) Callable() bool {
	return v.Kind == KindFunction || v.Kind == KindNative
}

// Arity returns the declared parameter count of a callable value
func (v Value) Arity() int32 {
	switch v.Kind {
	case KindFunction:
		return v.Func.Argc
	case KindNative:
		return v.Native.Argc
	}
	return 0
}

// Equal implements typed equality: same kind, and same numeric value, same
// function address, or byte-wise equal string slice. The arena resolves
// string views.
func Equal(a, b Value, arena *Arena) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return a.Number == b.Number
	case KindString:
		return arena.View(a.Str) == arena.View(b.Str)
	case KindFunction:
		return a.Func.Addr == b.Func.Addr
	case KindNative:
		return a.Native == b.Native
	}
	return false
}

// Format renders a value for stack printouts and disassembly
func (v Value) Format(arena *Arena) string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%d", v.Number)
	case KindString:
		return arena.View(v.Str)
	case KindFunction:
		return fmt.Sprintf("function @%d (argc %d)", v.Func.Addr, v.Func.Argc)
	case KindNative:
		return fmt.Sprintf("native '%s'", v.Native.Name)
	}
	return "unknown"
}

// Arena is the process-wide append-only character buffer backing string
// values. It only grows, so a StringRef taken at any point stays valid for
// the life of the VM.
type Arena struct {
	data []byte
}

// Append copies s into the arena and returns its view
func (a *Arena) Append(s string) StringRef {
	off := int32(len(a.data))
	a.data = append(a.data, s...)
	return StringRef{Off: off, Len: int32(len(s))}
}

// View resolves a reference to its text
func (a *Arena) View(ref StringRef) string {
	if ref.Off < 0 || ref.Len < 0 || int(ref.Off+ref.Len) > len(a.data) {
		return ""
	}
	return string(a.data[ref.Off : ref.Off+ref.Len])
}

// Len returns the current arena size in bytes
func (a *Arena) Len() int {
	return len(a.data)
}
