// Package mos6502 is an experimental back-end that lowers a subset of the
// expression language straight to 6502 machine bytes. It is independent of
// the stack VM: it keeps its own compile state, allocates value storage in
// the zero page, and dumps the raw opcode stream to a `.o65` file.
package mos6502

import (
	"fmt"
	"math"
	"os"

	"github.com/funk-lang/funk/parser"
)

// CompileState holds the output program, the zero-page data allocator, and
// the flat symbol table of one compilation.
type CompileState struct {
	Program     []byte
	DataSection int32 // Next free zero-page address
	symbols     map[string]int32

	source string
	errors *parser.ErrorList
}

// NewCompileState creates an empty compile state. Zero-page address 0 is
// left unused.
func NewCompileState() *CompileState {
	return &CompileState{
		DataSection: 0x1,
		symbols:     make(map[string]int32),
		errors:      &parser.ErrorList{},
	}
}

// Errors returns the diagnostics collected during code generation
func (s *CompileState) Errors() *parser.ErrorList {
	return s.errors
}

func (s *CompileState) errorf(tok parser.Token, format string, args ...interface{}) error {
	err := parser.NewErrorWithContext(parser.ErrCompile, tok.Pos, fmt.Sprintf(format, args...), s.source)
	s.errors.AddError(err)
	return err
}

// allocByte reserves one zero-page byte and returns its address
func (s *CompileState) allocByte() int32 {
	addr := s.DataSection
	s.DataSection++
	return addr
}

// defineValue binds a name to freshly allocated storage
func (s *CompileState) defineValue(tok parser.Token) (int32, error) {
	key := tok.Literal
	if _, exists := s.symbols[key]; exists {
		return 0, s.errorf(tok, "Value '%s' has already been defined", key)
	}
	addr := s.allocByte()
	s.symbols[key] = addr
	return addr, nil
}

// valueAddress resolves a name to its storage address
func (s *CompileState) valueAddress(tok parser.Token) (int32, error) {
	addr, exists := s.symbols[tok.Literal]
	if !exists {
		return 0, s.errorf(tok, "No such value '%s'", tok.Literal)
	}
	return addr, nil
}

// emit appends one byte to the program
func (s *CompileState) emit(b byte) {
	s.Program = append(s.Program, b)
}

// Generate lowers tree into 6502 bytes. Only the number / identifier /
// typed-let / expression-group subset is supported; anything else is
// rejected.
func (s *CompileState) Generate(tree *parser.Node, source string) error {
	s.source = source
	if tree.IsEmpty() {
		return nil
	}
	var branch parser.TokenType
	return s.generate(tree, &branch)
}

func (s *CompileState) generate(node *parser.Node, branchType *parser.TokenType) error {
	for _, child := range node.Children {
		tok := child.Token
		switch tok.Type {
		case parser.TokenNumber:
			// Load the value into A
			if branchType != nil {
				*branchType = parser.TokenNumber
			}
			if tok.Number > math.MaxUint8 {
				return s.errorf(tok, "Number '%d' does not fit in a byte", tok.Number)
			}
			s.emit(OpLDAImm)
			s.emit(byte(tok.Number))

		case parser.TokenIdentifier:
			// Load the value into A
			addr, err := s.valueAddress(tok)
			if err != nil {
				return err
			}
			if addr > math.MaxUint8 {
				return s.errorf(tok, "Value '%s' is outside the zero page", tok.Literal)
			}
			s.emit(OpLDAZpg)
			s.emit(byte(addr))

		case parser.TokenLet:
			if err := s.let(child); err != nil {
				return err
			}

		case parser.TokenExpr:
			if child.Count() > 0 {
				if err := s.generate(child, branchType); err != nil {
					return err
				}
			}

		default:
			return s.errorf(tok, "'%s' is not supported by this back-end", tok.Type)
		}
	}
	return nil
}

// let lowers a typed value binding: generate the value into A, then store
// A at the binding's zero-page address. The explicit type is required here
// since storage is allocated by type.
func (s *CompileState) let(node *parser.Node) error {
	ident := node.Child(0)
	valueBranch := node.Child(1)

	typeTok := ident.Child(0)
	if typeTok == nil {
		return s.errorf(ident.Token, "Expected type in value definition")
	}
	if typeTok.Token.Type != parser.TokenTypeInt {
		return s.errorf(typeTok.Token, "The type '%s' is not defined", typeTok.Token.Literal)
	}

	branchType := parser.TokenUnknown
	if err := s.generate(valueBranch, &branchType); err != nil {
		return err
	}
	if branchType != parser.TokenNumber {
		return s.errorf(typeTok.Token, "This expression was expected to have type '%s'", typeTok.Token.Literal)
	}

	addr, err := s.defineValue(ident.Token)
	if err != nil {
		return err
	}
	if addr > math.MaxUint8 {
		// Zero page mode only allows for addresses up to 255
		return s.errorf(ident.Token, "Value '%s' is outside the zero page", ident.Token.Literal)
	}
	s.emit(OpSTAZpg)
	s.emit(byte(addr))
	return nil
}

// WriteProgram dumps the raw opcode bytes to path
func (s *CompileState) WriteProgram(path string) error {
	if err := os.WriteFile(path, s.Program, 0644); err != nil { // #nosec G306 -- program dump is not sensitive
		return fmt.Errorf("failed to write program: %w", err)
	}
	return nil
}

// RunFile parses path and compiles it with this back-end, writing the raw
// byte dump to `<path>.o65`.
func RunFile(path string) error {
	tree, source, err := parser.ParseFile(path)
	if err != nil {
		return err
	}

	state := NewCompileState()
	if err := state.Generate(tree, source); err != nil {
		return err
	}
	return state.WriteProgram(path + ".o65")
}
