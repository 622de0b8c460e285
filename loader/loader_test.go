package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funk-lang/funk/vm"
)

func newSilentVM() *vm.VM {
	m := vm.NewVM()
	m.OutputWriter = &strings.Builder{}
	return m
}

// runEntry mimics one interactive entry: run, capture the stack, clear
func runEntry(t *testing.T, m *vm.VM, source string) []vm.Value {
	t.Helper()
	if err := Run(m, "stdin", source, Options{}); err != nil {
		t.Fatalf("entry %q failed: %v", source, err)
	}
	result := append([]vm.Value(nil), m.StackValues()...)
	m.ClearStack()
	return result
}

func TestRunSimpleExpression(t *testing.T) {
	m := newSilentVM()
	result := runEntry(t, m, "(+ 2 3)")
	if len(result) != 1 || result[0].Number != 5 {
		t.Errorf("expected [5], got %+v", result)
	}
}

func TestRunIncrementalEntries(t *testing.T) {
	m := newSilentVM()

	runEntry(t, m, "(let a 10)")
	runEntry(t, m, "(let b (+ a 5))")
	result := runEntry(t, m, "(+ a b)")

	if len(result) != 1 || result[0].Number != 25 {
		t.Errorf("expected [25], got %+v", result)
	}
}

func TestRunDefinitionsPersistAcrossEntries(t *testing.T) {
	m := newSilentVM()

	runEntry(t, m, "(define add (x y) (+ x y))")
	result := runEntry(t, m, "(add 2 40)")

	if len(result) != 1 || result[0].Number != 42 {
		t.Errorf("expected [42], got %+v", result)
	}
}

func TestRunReplContinuity(t *testing.T) {
	// After n successful entries, a literal entry leaves that literal on top
	m := newSilentVM()
	for _, entry := range []string{"(let x 1)", "(+ x 2)", "(define f () (9))"} {
		runEntry(t, m, entry)
	}
	result := runEntry(t, m, "(7)")
	if len(result) != 1 || result[0].Number != 7 {
		t.Errorf("expected [7], got %+v", result)
	}
}

func TestRunParseErrorLeavesStateUntouched(t *testing.T) {
	m := newSilentVM()
	runEntry(t, m, "(let a 1)")
	sizeBefore := m.ProgramSize()
	valuesBefore := len(m.Values)

	err := Run(m, "stdin", "(let a)", Options{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if m.ProgramSize() != sizeBefore || len(m.Values) != valuesBefore {
		t.Error("failed entry must not change VM state")
	}

	// The next entry still works
	result := runEntry(t, m, "(+ 1 2)")
	if len(result) != 1 || result[0].Number != 3 {
		t.Errorf("expected [3], got %+v", result)
	}
}

func TestRunCompileErrorRollsBack(t *testing.T) {
	m := newSilentVM()
	err := Run(m, "stdin", "(foo 1)", Options{})
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !strings.Contains(err.Error(), "No such value") {
		t.Errorf("unexpected error: %v", err)
	}
	if m.ProgramSize() != 0 {
		t.Errorf("program should be empty after rollback, got %d", m.ProgramSize())
	}

	result := runEntry(t, m, "(+ 1 2)")
	if len(result) != 1 || result[0].Number != 3 {
		t.Errorf("expected [3], got %+v", result)
	}
}

func TestRunRuntimeErrorKeepsVMUsable(t *testing.T) {
	m := newSilentVM()

	err := Run(m, "stdin", `(+ 1 "x")`, Options{})
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if !strings.Contains(err.Error(), "runtime-error") {
		t.Errorf("unexpected error: %v", err)
	}
	if m.StackTop != 0 {
		t.Error("stack should be cleared after a runtime error")
	}

	// The failing code is not re-entered by the next entry
	result := runEntry(t, m, "(+ 1 2)")
	if len(result) != 1 || result[0].Number != 3 {
		t.Errorf("expected [3], got %+v", result)
	}
}

func TestRunEmptyEntry(t *testing.T) {
	m := newSilentVM()
	if err := Run(m, "stdin", "   ", Options{}); err != nil {
		t.Fatalf("empty entry should be a no-op: %v", err)
	}
	if m.ProgramSize() != 0 {
		t.Errorf("empty entry should emit nothing, got %d", m.ProgramSize())
	}
}

func TestRunNativePrint(t *testing.T) {
	m := vm.NewVM()
	var out strings.Builder
	m.OutputWriter = &out

	runEntry(t, m, `(println "hello")`)
	if out.String() != "hello\n" {
		t.Errorf("expected printed output, got %q", out.String())
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.funk")
	source := "(define add (x y) (+ x y))\n(add 1 2)\n"
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	m := newSilentVM()
	if err := RunFile(m, path, Options{}); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	top, ok := m.Top()
	if !ok || top.Number != 3 {
		t.Errorf("expected 3 on top, got %+v (ok=%v)", top, ok)
	}
}

func TestRunFileMissing(t *testing.T) {
	m := newSilentVM()
	if err := RunFile(m, filepath.Join(t.TempDir(), "nope.funk"), Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunBytecodeDump(t *testing.T) {
	m := newSilentVM()
	path := filepath.Join(t.TempDir(), "bytecode.txt")

	if err := Run(m, "stdin", "(+ 1 2)", Options{BytecodeFile: path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected dump file: %v", err)
	}
	if !strings.Contains(string(data), "add") {
		t.Errorf("dump missing add opcode: %q", string(data))
	}
}
