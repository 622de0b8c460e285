package vm

import "errors"

// errExit unwinds the interpreter loop when EXIT executes
var errExit = errors.New("exit")

// Run executes the program from the saved instruction pointer until the
// trailing RETURN, then suspends, leaving the stack in place for
// diagnostics. On a runtime error the VM status is set and the stack is
// left as-is; the next compile+exec pair starts from a clean stack.
func (m *VM) Run() error {
	m.IP = m.SavedIP
	m.StackBase = 0
	err := m.run()
	if errors.Is(err, errExit) {
		return nil
	}
	return err
}

// run is the interpreter loop for one call frame. It returns on RETURN, or
// propagates errExit when the program halts.
func (m *VM) run() error {
	for {
		if m.IP < 0 || m.IP >= int32(len(m.Program)) {
			m.Status = StatusError
			return runtimeErrorf("Instruction pointer out of bounds (%d)", m.IP)
		}
		op := m.Program[m.IP]
		m.IP++

		switch op {
		case OpExit:
			return errExit

		case OpNop:
			// Do nothing

		case OpPush:
			addr := m.operand()
			if addr < 0 || addr >= int32(len(m.Values)) {
				m.Status = StatusError
				return runtimeErrorf("Bad value address %d", addr)
			}
			if err := m.push(m.Values[addr]); err != nil {
				return err
			}

		case OpPushArg:
			slot := m.operand()
			idx := m.StackBase + slot
			if idx < 0 || idx >= MaxStack {
				m.Status = StatusError
				return runtimeErrorf("Bad argument slot %d", slot)
			}
			if err := m.push(m.Stack[idx]); err != nil {
				return err
			}

		case OpPop:
			if _, err := m.pop(); err != nil {
				return err
			}

		case OpAssign:
			addr := m.operand()
			v, err := m.pop()
			if err != nil {
				return err
			}
			if addr < 0 || addr >= int32(len(m.Values)) {
				m.Status = StatusError
				return runtimeErrorf("Bad value address %d", addr)
			}
			m.Values[addr] = v

		case OpCondJump:
			off := m.operand()
			v, err := m.pop()
			if err != nil {
				return err
			}
			if !v.Truthy() {
				m.IP += off
			}

		case OpJump:
			m.IP += m.operand()

		case OpReturn:
			return nil

		case OpCall:
			addr := m.operand()
			if addr < 0 || addr >= int32(len(m.Values)) {
				m.Status = StatusError
				return runtimeErrorf("Bad value address %d", addr)
			}
			if err := m.call(m.Values[addr]); err != nil {
				return err
			}

		case OpLocalCall:
			argc := m.operand()
			callee, err := m.pop()
			if err != nil {
				return err
			}
			if !callee.Callable() {
				m.Status = StatusError
				return runtimeErrorf("Attempt to call a value that is not a function")
			}
			if callee.Arity() != argc {
				m.Status = StatusError
				return runtimeErrorf("Invalid number of arguments")
			}
			if err := m.call(callee); err != nil {
				return err
			}

		case OpAdd, OpSub, OpMul, OpDiv, OpLt, OpGt:
			if err := m.arith(op); err != nil {
				return err
			}

		case OpEq:
			b, err := m.pop()
			if err != nil {
				return err
			}
			a, err := m.pop()
			if err != nil {
				return err
			}
			result := int32(0)
			if Equal(a, b, &m.Arena) {
				result = 1
			}
			if err := m.push(NumberValue(result)); err != nil {
				return err
			}

		default:
			m.Status = StatusError
			return runtimeErrorf("Bad opcode %d", op)
		}
	}
}

// operand reads the immediate word following the current opcode
func (m *VM) operand() int32 {
	word := m.Program[m.IP]
	m.IP++
	return word
}

// call invokes a function or native value following the frame protocol:
// the caller has pushed the arguments in order; the callee's frame base is
// the index of its first argument. On return, the frame collapses to at
// most one produced value at the caller's stack top.
func (m *VM) call(callee Value) error {
	if !callee.Callable() {
		m.Status = StatusError
		return runtimeErrorf("Attempt to call a value that is not a function")
	}
	argc := callee.Arity()
	if m.StackTop < argc {
		m.Status = StatusError
		return runtimeErrorf("Invalid number of arguments")
	}

	base := m.StackTop - argc
	oldBase := m.StackBase
	m.StackBase = base

	if callee.Kind == KindNative {
		produced := callee.Native.Fn(m)
		m.collapse(base, produced)
		m.StackBase = oldBase
		return nil
	}

	savedIP := m.IP
	m.IP = callee.Func.Addr
	oldTop := m.StackTop

	err := m.run()
	if err != nil {
		m.StackBase = oldBase
		return err
	}

	m.collapse(base, m.StackTop-oldTop)
	m.IP = savedIP
	m.StackBase = oldBase
	return nil
}

// collapse folds a finished call frame: the last produced value (if any)
// moves to the frame base and becomes the caller's new stack top.
func (m *VM) collapse(base, produced int32) {
	if produced >= 1 {
		m.Stack[base] = m.Stack[m.StackTop-1]
		m.StackTop = base + 1
		return
	}
	m.StackTop = base
}

// arith executes a binary operation on the two stack-top numbers
func (m *VM) arith(op Opcode) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if a.Kind != KindNumber || b.Kind != KindNumber {
		m.Status = StatusError
		return runtimeErrorf("Invalid types in arithmetic operation")
	}

	var result int32
	switch op {
	case OpAdd:
		result = a.Number + b.Number
	case OpSub:
		result = a.Number - b.Number
	case OpMul:
		result = a.Number * b.Number
	case OpDiv:
		if b.Number == 0 {
			m.Status = StatusError
			return runtimeErrorf("Division by zero")
		}
		result = a.Number / b.Number
	case OpLt:
		if a.Number < b.Number {
			result = 1
		}
	case OpGt:
		if a.Number > b.Number {
			result = 1
		}
	}
	return m.push(NumberValue(result))
}
