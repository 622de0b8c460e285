package parser

import (
	"fmt"
)

// Parser builds an expression tree from a token stream.
//
// The grammar is parenthesized S-expressions:
//
//	program     := expression*
//	expression  := '(' simple_expr ')'
//	simple_expr := (let | if | define | op_expr | atom | expression)*
//	let         := 'let' IDENT (':' typename)? simple_expr
//	if          := 'if' expression expression expression?
//	define      := 'define' IDENT '(' IDENT* ')' simple_expr
//	op_expr     := OP simple_expr
//	atom        := NUMBER | STRING | IDENT
type Parser struct {
	lexer  *Lexer
	cur    Token
	errors *ErrorList
}

// NewParser creates a parser over the given source text
func NewParser(input, filename string) *Parser {
	p := &Parser{
		lexer:  NewLexer(input, filename),
		errors: &ErrorList{},
	}
	p.advance()
	return p
}

// ParseSource parses a whole program and returns the expression tree.
// The returned node is the program root; each top-level expression is an
// EXPR branch under it.
func ParseSource(input, filename string) (*Node, error) {
	p := NewParser(input, filename)
	return p.Parse()
}

// Parse parses until EOF
func (p *Parser) Parse() (*Node, error) {
	root := NewNode(NewToken(TokenExpr))
	for !p.at(TokenEOF) {
		if err := p.expression(root); err != nil {
			return root, p.failure()
		}
	}
	if lexErrs := p.lexer.Errors(); lexErrs.HasErrors() {
		return root, lexErrs.First()
	}
	return root, nil
}

// Errors returns the collected parse diagnostics
func (p *Parser) Errors() *ErrorList {
	return p.errors
}

func (p *Parser) advance() Token {
	p.cur = p.lexer.NextToken()
	return p.cur
}

func (p *Parser) at(typ TokenType) bool {
	return p.cur.Type == typ
}

func (p *Parser) exprEnd() bool {
	return p.at(TokenRParen)
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	err := NewErrorWithContext(ErrParse, tok.Pos, fmt.Sprintf(format, args...), p.lexer.Source())
	p.errors.AddError(err)
	return err
}

// failure reports the most relevant error after a failed parse: a lexer
// error takes precedence since it is the root cause of the bad token stream.
func (p *Parser) failure() error {
	if lexErrs := p.lexer.Errors(); lexErrs.HasErrors() {
		return lexErrs.First()
	}
	if p.errors.HasErrors() {
		return p.errors.First()
	}
	return NewError(ErrParse, p.cur.Pos, "parse failed")
}

// expression parses '(' simple_expr ')' and adds an EXPR branch to parent
func (p *Parser) expression(parent *Node) error {
	if !p.at(TokenLParen) {
		return p.errorf(p.cur, "Expected expression")
	}
	p.advance() // Skip '('

	branch := parent.Add(NewToken(TokenExpr))
	if err := p.simpleExpr(branch); err != nil {
		return err
	}

	if !p.at(TokenRParen) {
		return p.errorf(p.cur, "Missing closing ')' parenthesis in expression")
	}
	p.advance() // Skip ')'
	return nil
}

// simpleExpr parses expression contents into parent until ')' or EOF
func (p *Parser) simpleExpr(parent *Node) error {
	for !p.at(TokenEOF) && !p.exprEnd() {
		tok := p.cur
		switch {
		case tok.Type.IsOperator():
			if err := p.opExpr(parent); err != nil {
				return err
			}

		case tok.Type == TokenLet:
			if err := p.let(parent); err != nil {
				return err
			}

		case tok.Type == TokenIf:
			if err := p.ifExpr(parent); err != nil {
				return err
			}

		case tok.Type == TokenDefine:
			if err := p.define(parent); err != nil {
				return err
			}

		case tok.Type == TokenString || tok.Type == TokenNumber || tok.Type == TokenIdentifier:
			parent.Add(tok)
			p.advance()

		case tok.Type == TokenLParen:
			if err := p.expression(parent); err != nil {
				return err
			}

		default:
			// Consume the offending token so repeated calls make progress
			err := p.errorf(tok, "Unrecognized token '%s'", tok.Literal)
			p.advance()
			return err
		}
	}
	return nil
}

// opExpr parses a binary operator and its two operand expressions
func (p *Parser) opExpr(parent *Node) error {
	op := parent.Add(p.cur)
	p.advance() // Skip operator

	if err := p.simpleExpr(op); err != nil {
		return err
	}

	if op.Count() != 2 {
		return p.errorf(op.Token, "Invalid number of parameters (got %d, should be %d)", op.Count(), 2)
	}
	return nil
}

// let parses 'let' IDENT (':' typename)? value-expression.
// The identifier node carries the optional type token as its only child and
// the value branch holds exactly one sub-expression.
func (p *Parser) let(parent *Node) error {
	let := parent.Add(p.cur)
	p.advance() // Skip 'let'

	if !p.at(TokenIdentifier) {
		return p.errorf(p.cur, "Expected identifier")
	}
	ident := let.Add(p.cur)
	p.advance() // Skip identifier

	// Explicit value type
	if p.at(TokenColon) {
		p.advance() // Skip ':'
		if !p.cur.Type.IsTypename() {
			return p.errorf(p.cur, "The type '%s' is not defined", p.cur.Literal)
		}
		ident.Add(p.cur)
		p.advance() // Skip type
	}

	value := let.Add(NewToken(TokenExpr))
	if err := p.simpleExpr(value); err != nil {
		return err
	}

	if value.Count() != 1 {
		return p.errorf(let.Token, "Invalid number of expressions given in value definition")
	}
	return nil
}

// ifExpr parses 'if' condition then-branch else-branch?. All three branches
// are always allocated so the compiler can address them by index; an absent
// else-branch has zero children. A branch body is either a parenthesized
// expression or a single atom.
func (p *Parser) ifExpr(parent *Node) error {
	ifNode := parent.Add(p.cur)
	p.advance() // Skip 'if'

	cond := ifNode.Add(NewToken(TokenExpr))
	if err := p.expression(cond); err != nil {
		return p.errorf(ifNode.Token, "Missing condition in if expression")
	}

	thenBody := ifNode.Add(NewToken(TokenExpr))
	if err := p.branch(thenBody); err != nil {
		return p.errorf(ifNode.Token, "Missing if body")
	}

	elseBody := ifNode.Add(NewToken(TokenExpr))
	if p.at(TokenLParen) || p.atAtom() {
		// Else branch is optional
		if err := p.branch(elseBody); err != nil {
			return err
		}
	}
	return nil
}

// atAtom reports whether the current token is a literal or identifier
func (p *Parser) atAtom() bool {
	return p.at(TokenNumber) || p.at(TokenString) || p.at(TokenIdentifier)
}

// branch parses one if-branch body: '(' simple_expr ')' or a single atom
func (p *Parser) branch(parent *Node) error {
	if p.atAtom() {
		parent.Add(p.cur)
		p.advance()
		return nil
	}
	return p.expression(parent)
}

// define parses 'define' IDENT '(' IDENT* ')' body
func (p *Parser) define(parent *Node) error {
	def := parent.Add(p.cur)
	p.advance() // Skip 'define'

	if !p.at(TokenIdentifier) {
		return p.errorf(p.cur, "Expected identifier")
	}
	def.Add(p.cur)
	p.advance() // Skip identifier

	params := def.Add(NewToken(TokenExpr))
	if !p.at(TokenLParen) {
		return p.errorf(p.cur, "Missing parameter list in function definition")
	}
	p.advance() // Skip '('

	if err := p.params(params); err != nil {
		return err
	}

	if !p.at(TokenRParen) {
		return p.errorf(p.cur, "Missing closing ')' parenthesis in function parameter list")
	}
	p.advance() // Skip ')'

	body := def.Add(NewToken(TokenExpr))
	return p.simpleExpr(body)
}

// params parses the identifiers of a parameter list
func (p *Parser) params(parent *Node) error {
	for {
		switch p.cur.Type {
		case TokenIdentifier:
			parent.Add(p.cur)
			p.advance()
		case TokenRParen:
			return nil
		default:
			return p.errorf(p.cur, "Expected identifier in parameter list")
		}
	}
}
