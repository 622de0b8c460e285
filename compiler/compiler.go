package compiler

import (
	"fmt"

	"github.com/funk-lang/funk/parser"
	"github.com/funk-lang/funk/vm"
)

// unresolvedJump is the placeholder operand of a forward jump before it is
// back-patched.
const unresolvedJump = 0

// Compiler lowers an expression tree into instructions and value-pool
// entries on a VM. One Compiler instance runs one top-level pass and
// carries the transaction state needed to roll that pass back: the program
// snapshot, the number of pool values added, and the global names bound.
type Compiler struct {
	// BytecodeFile receives a human-readable disassembly after every
	// successful pass. Empty disables the dump.
	BytecodeFile string

	m      *vm.VM
	source string
	errors *parser.ErrorList

	oldProgramSize int32
	numValuesAdded int32
	newGlobals     []string
}

// New creates a compiler for the given VM
func New(m *vm.VM) *Compiler {
	return &Compiler{
		BytecodeFile: "bytecode.txt",
		m:            m,
		errors:       &parser.ErrorList{},
	}
}

// Compile runs one code-generation pass over tree. On failure every effect
// of the pass is rolled back: emitted instructions, new pool values, and
// newly bound global names. On success a trailing RETURN is appended so
// execution halts at the new program tail, and the disassembly dump is
// written.
func Compile(m *vm.VM, tree *parser.Node, source string) error {
	return New(m).Compile(tree, source)
}

// Compile implements one transactional pass; see the package-level Compile.
func (c *Compiler) Compile(tree *parser.Node, source string) error {
	if tree.IsEmpty() {
		return nil
	}

	c.source = source
	c.oldProgramSize = c.m.ProgramSize()
	c.numValuesAdded = 0
	c.newGlobals = c.newGlobals[:0]

	err := c.generate(tree, c.m.Global, nil)
	if err != nil {
		c.rollback()
		return err
	}

	c.emit(vm.OpReturn)

	if c.BytecodeFile != "" {
		if dumpErr := WriteBytecode(c.m, c.BytecodeFile); dumpErr != nil {
			fmt.Fprintf(c.m.OutputWriter, "warning: %v\n", dumpErr)
		}
	}
	return nil
}

// Errors returns the diagnostics collected by this pass
func (c *Compiler) Errors() *parser.ErrorList {
	return c.errors
}

// rollback restores the VM to its state before this pass
func (c *Compiler) rollback() {
	c.m.TruncateProgram(c.oldProgramSize)
	c.m.TruncateValues(c.numValuesAdded)
	for _, name := range c.newGlobals {
		c.m.Global.Remove(name)
	}
}

func (c *Compiler) errorf(tok parser.Token, format string, args ...interface{}) error {
	err := parser.NewErrorWithContext(parser.ErrCompile, tok.Pos, fmt.Sprintf(format, args...), c.source)
	c.errors.AddError(err)
	return err
}

// emit appends an instruction word
func (c *Compiler) emit(word int32) int32 {
	return c.m.Emit(word)
}

// valueAdd appends a value to the pool, tracking it for rollback
func (c *Compiler) valueAdd(v vm.Value) int32 {
	c.numValuesAdded++
	return c.m.AddValue(v)
}

// defineValue binds a new name in scope to a fresh pool slot of the given
// kind. Global bindings are recorded for rollback.
func (c *Compiler) defineValue(tok parser.Token, scope *vm.Scope, kind vm.Kind) (int32, error) {
	name := tok.Literal
	if scope.Has(name) {
		return 0, c.errorf(tok, "Value '%s' has already been defined", name)
	}
	addr := c.valueAdd(vm.Value{Kind: kind})
	scope.Define(name, addr)
	if scope == c.m.Global {
		c.newGlobals = append(c.newGlobals, name)
	}
	return addr, nil
}

// setBranch reports the inferred type of the current branch to the caller
func setBranch(branchType *vm.Kind, kind vm.Kind) {
	if branchType != nil {
		*branchType = kind
	}
}

// tokenToValue converts a literal token into a runtime value. String text
// is appended to the VM's string arena and the value references that slice.
func (c *Compiler) tokenToValue(tok parser.Token) vm.Value {
	if tok.Type == parser.TokenString {
		return vm.Value{Kind: vm.KindString, Str: c.m.Arena.Append(tok.Literal)}
	}
	return vm.NumberValue(tok.Number)
}

var tokenOps = map[parser.TokenType]vm.Opcode{
	parser.TokenAdd: vm.OpAdd,
	parser.TokenSub: vm.OpSub,
	parser.TokenMul: vm.OpMul,
	parser.TokenDiv: vm.OpDiv,
	parser.TokenLt:  vm.OpLt,
	parser.TokenGt:  vm.OpGt,
	parser.TokenEq:  vm.OpEq,
}

// generate lowers the children of node within scope. branchType, when
// non-nil, receives the inferred type of the last value-producing child;
// it is how let validates explicit types.
func (c *Compiler) generate(node *parser.Node, scope *vm.Scope, branchType *vm.Kind) error {
	return c.generateFrom(node, 0, scope, branchType)
}

func (c *Compiler) generateFrom(node *parser.Node, start int, scope *vm.Scope, branchType *vm.Kind) error {
	for i := start; i < node.Count(); i++ {
		child := node.Child(i)
		tok := child.Token
		switch {
		case tok.Type == parser.TokenNumber || tok.Type == parser.TokenString:
			v := c.tokenToValue(tok)
			setBranch(branchType, v.Kind)
			addr := c.valueAdd(v)
			c.emit(vm.OpPush)
			c.emit(addr)

		case tok.Type == parser.TokenIdentifier:
			if err := c.identifier(node, &i, scope, branchType); err != nil {
				return err
			}

		case tok.Type == parser.TokenLet:
			if err := c.let(child, scope); err != nil {
				return err
			}

		case tok.Type == parser.TokenDefine:
			if err := c.defineFunc(child, scope); err != nil {
				return err
			}

		case tok.Type == parser.TokenIf:
			if err := c.ifExpr(child, scope, branchType); err != nil {
				return err
			}

		case tok.Type.IsOperator():
			if err := c.opExpr(child, scope, branchType); err != nil {
				return err
			}

		case tok.Type == parser.TokenExpr:
			if child.Count() > 0 {
				if err := c.generate(child, scope, branchType); err != nil {
					return err
				}
			}

		default:
			// Unhandled node tags produce no code
		}
	}
	return nil
}

// identifier resolves a name and emits the push or call it denotes.
// Resolution order: current parameter table, then the lexical value chain.
//
// A resolved function or native value followed by an expression group is a
// call site: the group's children are the arguments. When the identifier
// heads its expression branch, the remaining siblings are the arguments
// instead, so (add 2 40) and (add (2 40)) lower to the same call.
//
// A parameter callee is unknown at compile time, so its call site defers
// the check to runtime through LOCAL_CALL. A parameter is a callee only
// when it heads its expression branch with the argument group beside it,
// as in (f (x)); anywhere else a parameter lowers to a plain PUSH_ARG, so
// an operand like n in (* n (fact (- n 1))) is never mistaken for a call.
func (c *Compiler) identifier(parent *parser.Node, i *int, scope *vm.Scope, branchType *vm.Kind) error {
	tok := parent.Child(*i).Token
	name := tok.Literal

	if slot, ok := scope.LookupParam(name); ok {
		next := parent.Child(*i + 1)
		if next != nil && next.Token.Type == parser.TokenExpr &&
			*i == 0 && parent.Token.Type == parser.TokenExpr {
			// Local call: arguments first, then the callee value, then
			// the deferred invoke
			argc := int32(next.Count())
			if argc > 0 {
				if err := c.generate(next, scope, branchType); err != nil {
					return err
				}
			}
			*i++
			c.emit(vm.OpPushArg)
			c.emit(slot)
			c.emit(vm.OpLocalCall)
			c.emit(argc)
			return nil
		}
		c.emit(vm.OpPushArg)
		c.emit(slot)
		return nil
	}

	addr, ok := scope.Lookup(name)
	if !ok {
		return c.errorf(tok, "No such value '%s'", name)
	}

	value := c.m.Values[addr]
	if value.Callable() {
		next := parent.Child(*i + 1)
		if next != nil && next.Token.Type == parser.TokenExpr {
			if next.Count() > 0 {
				if err := c.generate(next, scope, branchType); err != nil {
					return err
				}
			}
			*i++
			c.emit(vm.OpCall)
			c.emit(addr)
			return nil
		}
		if next != nil && *i == 0 && parent.Token.Type == parser.TokenExpr {
			// (f a b ...): the rest of the branch is the argument list
			if err := c.generateFrom(parent, *i+1, scope, branchType); err != nil {
				return err
			}
			*i = parent.Count()
			c.emit(vm.OpCall)
			c.emit(addr)
			return nil
		}
	}

	setBranch(branchType, value.Kind)
	c.emit(vm.OpPush)
	c.emit(addr)
	return nil
}

// declaredType computes the type named by an explicit let annotation:
// a reserved typename directly, or a user-defined type value looked up in
// scope.
func (c *Compiler) declaredType(tok parser.Token, scope *vm.Scope) (vm.Kind, error) {
	switch tok.Type {
	case parser.TokenTypeInt:
		return vm.KindNumber, nil
	case parser.TokenTypeString:
		return vm.KindString, nil
	case parser.TokenIdentifier:
		addr, ok := scope.Lookup(tok.Literal)
		if !ok {
			return vm.KindUnknown, c.errorf(tok, "The type '%s' is not defined", tok.Literal)
		}
		return c.m.Values[addr].Kind, nil
	}
	return vm.KindUnknown, c.errorf(tok, "The type '%s' is not defined", tok.Literal)
}

// let lowers a value binding: define the name, compile the value branch,
// validate the explicit type if present, and assign. A name already bound
// in the current scope is rebound to its existing pool slot, so both arms
// of a conditional may bind the same name.
func (c *Compiler) let(node *parser.Node, scope *vm.Scope) error {
	ident := node.Child(0)
	valueBranch := node.Child(1)

	declared := vm.KindUnknown
	var typeTok *parser.Token
	if t := ident.Child(0); t != nil {
		typeTok = &t.Token
		kind, err := c.declaredType(t.Token, scope)
		if err != nil {
			return err
		}
		declared = kind
	}

	addr, exists := scope.LookupLocal(ident.Token.Literal)
	if !exists {
		var err error
		addr, err = c.defineValue(ident.Token, scope, declared)
		if err != nil {
			return err
		}
	}

	branch := vm.KindUnknown
	if err := c.generate(valueBranch, scope, &branch); err != nil {
		return err
	}

	if typeTok != nil && declared != branch {
		return c.errorf(*typeTok, "This expression was expected to have type '%s'", typeTok.Literal)
	}

	c.m.Values[addr].Kind = branch
	c.emit(vm.OpAssign)
	c.emit(addr)
	return nil
}

// ifExpr lowers a conditional. Jumps are relative, forward, by count of
// instruction words to skip; placeholders are patched once the guarded
// region is emitted. The false path of the condition also skips the
// else-branch's leading jump pair when an else-branch exists.
func (c *Compiler) ifExpr(node *parser.Node, scope *vm.Scope, branchType *vm.Kind) error {
	cond := node.Child(0)
	thenBody := node.Child(1)
	elseBody := node.Child(2)

	if err := c.generate(cond, scope, branchType); err != nil {
		return err
	}

	c.emit(vm.OpCondJump)
	condIdx := c.emit(unresolvedJump)
	thenStart := c.m.ProgramSize()

	if err := c.generate(thenBody, scope, branchType); err != nil {
		return err
	}

	if elseBody.Count() > 0 {
		c.emit(vm.OpJump)
		jumpIdx := c.emit(unresolvedJump)
		c.m.Program[condIdx] = c.m.ProgramSize() - thenStart

		elseStart := c.m.ProgramSize()
		if err := c.generate(elseBody, scope, branchType); err != nil {
			return err
		}
		c.m.Program[jumpIdx] = c.m.ProgramSize() - elseStart
	} else {
		c.m.Program[condIdx] = c.m.ProgramSize() - thenStart
	}
	return nil
}

// defineFunc lowers a function definition: a skip-over jump so top-level
// execution falls past the body, the function value with its entry
// address, a fresh scope for parameters and locals, the body, and a
// trailing RETURN.
func (c *Compiler) defineFunc(node *parser.Node, scope *vm.Scope) error {
	nameTok := node.Child(0).Token
	params := node.Child(1)
	body := node.Child(2)

	addr, err := c.defineValue(nameTok, scope, vm.KindFunction)
	if err != nil {
		return err
	}

	c.emit(vm.OpJump)
	skipIdx := c.emit(unresolvedJump)

	entry := c.m.ProgramSize()
	c.m.Values[addr].Func.Addr = entry

	sub := vm.NewScope(scope)
	for _, param := range params.Children {
		if param.Token.Type != parser.TokenIdentifier {
			return c.errorf(param.Token, "Expected identifier in function parameter list (got '%s')", param.Token.Literal)
		}
		if _, ok := sub.DefineParam(param.Token.Literal); !ok {
			return c.errorf(param.Token, "Parameter '%s' has already been defined", param.Token.Literal)
		}
	}
	c.m.Values[addr].Func.Argc = int32(params.Count())

	if err := c.generate(body, sub, nil); err != nil {
		return err
	}
	c.emit(vm.OpReturn)

	c.m.Program[skipIdx] = c.m.ProgramSize() - entry
	return nil
}

// opExpr lowers a binary operator: both operand branches in order, then
// the opcode.
func (c *Compiler) opExpr(node *parser.Node, scope *vm.Scope, branchType *vm.Kind) error {
	op, ok := tokenOps[node.Token.Type]
	if !ok {
		return c.errorf(node.Token, "Unknown operator '%s'", node.Token.Literal)
	}
	if node.Count() < 2 {
		return c.errorf(node.Token, "Missing operands")
	}
	if err := c.generate(node, scope, branchType); err != nil {
		return err
	}
	c.emit(op)
	return nil
}
