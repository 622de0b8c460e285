package parser

import (
	"strings"
	"testing"
)

func TestParseSimpleExpression(t *testing.T) {
	tree, err := ParseSource("(+ 2 3)", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if tree.Count() != 1 {
		t.Fatalf("expected 1 top-level expression, got %d", tree.Count())
	}
	expr := tree.Child(0)
	if expr.Token.Type != TokenExpr {
		t.Fatalf("expected EXPR branch, got %v", expr.Token.Type)
	}
	op := expr.Child(0)
	if op.Token.Type != TokenAdd {
		t.Fatalf("expected operator branch, got %v", op.Token.Type)
	}
	if op.Count() != 2 {
		t.Errorf("expected 2 operands, got %d", op.Count())
	}
}

func TestParseOperatorArity(t *testing.T) {
	_, err := ParseSource("(+ 1)", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for missing operand")
	}
	if !strings.Contains(err.Error(), "Invalid number of parameters") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestParseLet(t *testing.T) {
	tree, err := ParseSource("(let a 10)", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	let := tree.Child(0).Child(0)
	if let.Token.Type != TokenLet {
		t.Fatalf("expected let branch, got %v", let.Token.Type)
	}
	if let.Count() != 2 {
		t.Fatalf("expected ident and value branches, got %d children", let.Count())
	}
	ident := let.Child(0)
	if ident.Token.Literal != "a" {
		t.Errorf("expected identifier 'a', got %q", ident.Token.Literal)
	}
	if ident.Count() != 0 {
		t.Errorf("expected no type sub-node, got %d", ident.Count())
	}
	value := let.Child(1)
	if value.Token.Type != TokenExpr || value.Count() != 1 {
		t.Errorf("expected value branch with exactly one child, got %v with %d", value.Token.Type, value.Count())
	}
}

func TestParseLetWithType(t *testing.T) {
	tree, err := ParseSource("(let a:int 10)", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	ident := tree.Child(0).Child(0).Child(0)
	if ident.Count() != 1 {
		t.Fatalf("expected a type sub-node on the identifier, got %d children", ident.Count())
	}
	if ident.Child(0).Token.Type != TokenTypeInt {
		t.Errorf("expected int type node, got %v", ident.Child(0).Token.Type)
	}
}

func TestParseLetUndefinedType(t *testing.T) {
	_, err := ParseSource("(let a:blah 10)", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for undefined type")
	}
	if !strings.Contains(err.Error(), "is not defined") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestParseLetArity(t *testing.T) {
	_, err := ParseSource("(let a)", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for missing value")
	}
	if !strings.Contains(err.Error(), "Invalid number of expressions") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestParseIfBranchesAlwaysAllocated(t *testing.T) {
	tree, err := ParseSource("(if (== 1 1) (2))", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	ifNode := tree.Child(0).Child(0)
	if ifNode.Token.Type != TokenIf {
		t.Fatalf("expected if branch, got %v", ifNode.Token.Type)
	}
	if ifNode.Count() != 3 {
		t.Fatalf("expected cond/then/else branches, got %d", ifNode.Count())
	}
	if ifNode.Child(2).Count() != 0 {
		t.Errorf("expected empty else branch, got %d children", ifNode.Child(2).Count())
	}
}

func TestParseIfWithElse(t *testing.T) {
	tree, err := ParseSource("(if (== 1 1) (2) (3))", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ifNode := tree.Child(0).Child(0)
	if ifNode.Child(2).Count() == 0 {
		t.Error("expected non-empty else branch")
	}
}

func TestParseIfAtomBranches(t *testing.T) {
	tree, err := ParseSource("(if (< 1 2) 1 0)", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ifNode := tree.Child(0).Child(0)
	then := ifNode.Child(1)
	if then.Count() != 1 || then.Child(0).Token.Type != TokenNumber {
		t.Errorf("expected atom then-branch, got %v", then)
	}
	elseBody := ifNode.Child(2)
	if elseBody.Count() != 1 || elseBody.Child(0).Token.Number != 0 {
		t.Errorf("expected atom else-branch, got %v", elseBody)
	}
}

func TestParseIfMissingCondition(t *testing.T) {
	_, err := ParseSource("(if)", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for missing condition")
	}
}

func TestParseDefine(t *testing.T) {
	tree, err := ParseSource("(define add (x y) (+ x y))", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	def := tree.Child(0).Child(0)
	if def.Token.Type != TokenDefine {
		t.Fatalf("expected define branch, got %v", def.Token.Type)
	}
	if def.Count() != 3 {
		t.Fatalf("expected name/params/body, got %d children", def.Count())
	}
	if def.Child(0).Token.Literal != "add" {
		t.Errorf("expected function name 'add', got %q", def.Child(0).Token.Literal)
	}
	params := def.Child(1)
	if params.Count() != 2 {
		t.Fatalf("expected 2 parameters, got %d", params.Count())
	}
	if params.Child(0).Token.Literal != "x" || params.Child(1).Token.Literal != "y" {
		t.Errorf("unexpected parameter names: %q %q",
			params.Child(0).Token.Literal, params.Child(1).Token.Literal)
	}
}

func TestParseDefineEmptyParams(t *testing.T) {
	tree, err := ParseSource("(define f () (42))", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	def := tree.Child(0).Child(0)
	if def.Child(1).Count() != 0 {
		t.Errorf("expected empty parameter list, got %d", def.Child(1).Count())
	}
}

func TestParseDefineBadParams(t *testing.T) {
	_, err := ParseSource("(define f (1 2) (42))", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for non-identifier parameter")
	}
	if !strings.Contains(err.Error(), "Expected identifier in parameter list") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestParseMissingClosingParen(t *testing.T) {
	_, err := ParseSource("(+ 1 2", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for missing closing parenthesis")
	}
}

func TestParseUnrecognizedToken(t *testing.T) {
	_, err := ParseSource("(,)", "test.funk")
	if err == nil {
		t.Fatal("expected parse error for unrecognized token")
	}
	if !strings.Contains(err.Error(), "Unrecognized token") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestParseMultipleExpressions(t *testing.T) {
	tree, err := ParseSource("(let a 1) (let b 2) (+ a b)", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if tree.Count() != 3 {
		t.Errorf("expected 3 top-level expressions, got %d", tree.Count())
	}
}

func TestParseNestedCall(t *testing.T) {
	tree, err := ParseSource("(fact (- n 1))", "test.funk")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	branch := tree.Child(0)
	if branch.Count() != 2 {
		t.Fatalf("expected identifier plus argument group, got %d children", branch.Count())
	}
	if branch.Child(1).Token.Type != TokenExpr {
		t.Errorf("expected argument group to be an expression branch, got %v", branch.Child(1).Token.Type)
	}
}

func TestParseErrorHasPositionAndContext(t *testing.T) {
	_, err := ParseSource("(let a:bad 1)", "test.funk")
	if err == nil {
		t.Fatal("expected parse error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "parse-error: test.funk:1:") {
		t.Errorf("expected parse-error prefix with position, got %q", msg)
	}
	if !strings.Contains(msg, "(let a:bad 1)") {
		t.Errorf("expected offending line in message, got %q", msg)
	}
	if !strings.Contains(msg, "^") {
		t.Errorf("expected caret indicator, got %q", msg)
	}
}
