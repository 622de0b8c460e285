package repl

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/funk-lang/funk/compiler"
)

// TUI is the terminal user interface of the session: the entry input plus
// live panels for the result stack, the value pool, the compiled program,
// and program output.
type TUI struct {
	// Core components
	Repl *Repl
	App  *tview.Application

	// Layout containers
	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	// View panels
	OutputView   *tview.TextView
	StackView    *tview.TextView
	ValuesView   *tview.TextView
	BytecodeView *tview.TextView
	EntryInput   *tview.InputField
}

// RunTUI runs the terminal user interface session
func RunTUI(r *Repl) error {
	tui := NewTUI(r)
	return tui.Run()
}

// NewTUI creates a new terminal user interface
func NewTUI(r *Repl) *TUI {
	tui := &TUI{
		Repl: r,
		App:  tview.NewApplication(),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	// Program output is rendered inside the output panel
	r.VM.OutputWriter = tui.OutputView

	return tui
}

// initializeViews creates all the view panels
func (t *TUI) initializeViews() {
	// Output View
	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")
	t.OutputView.SetChangedFunc(func() {
		t.App.Draw()
	})

	// Stack View
	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Result Stack ")

	// Values View
	t.ValuesView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.ValuesView.SetBorder(true).SetTitle(" Value Pool ")

	// Bytecode View
	t.BytecodeView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BytecodeView.SetBorder(true).SetTitle(" Bytecode ")

	// Entry Input
	t.EntryInput = tview.NewInputField().
		SetLabel(t.Repl.Prompt).
		SetFieldWidth(0)
	t.EntryInput.SetBorder(true).SetTitle(" Entry ")
	t.EntryInput.SetDoneFunc(t.handleEntry)
}

// buildLayout constructs the TUI layout
func (t *TUI) buildLayout() {
	// Left panel: Output and Stack
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.OutputView, 0, 3, false).
		AddItem(t.StackView, 8, 0, false)

	// Right panel: Values and Bytecode
	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.ValuesView, 0, 1, false).
		AddItem(t.BytecodeView, 0, 2, false)

	// Main content: Left and Right panels
	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	// Main layout: Content + Entry
	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 1, false).
		AddItem(t.EntryInput, 3, 0, true)
}

// setupKeyBindings wires history navigation and exit keys
func (t *TUI) setupKeyBindings() {
	t.EntryInput.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			if prev := t.Repl.History.Previous(); prev != "" {
				t.EntryInput.SetText(prev)
			}
			return nil
		case tcell.KeyDown:
			t.EntryInput.SetText(t.Repl.History.Next())
			return nil
		case tcell.KeyEscape:
			t.App.Stop()
			return nil
		}
		return event
	})
}

// handleEntry evaluates the current input line
func (t *TUI) handleEntry(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}

	line := strings.TrimSpace(t.EntryInput.GetText())
	t.EntryInput.SetText("")
	if line == "" {
		return
	}

	t.Repl.History.Add(line)

	if strings.HasPrefix(line, ":") {
		if quit := t.Repl.Command(line, t.OutputView); quit {
			t.App.Stop()
			return
		}
		t.updateViews()
		return
	}

	fmt.Fprintf(t.OutputView, "[yellow]%s%s[-]\n", t.Repl.Prompt, tview.Escape(line))
	if err := t.Repl.Eval(line); err != nil {
		fmt.Fprintf(t.OutputView, "[red]%s[-]", tview.Escape(err.Error()))
	}
	t.updateViews()
}

// updateViews refreshes the stack, value pool, and bytecode panels
func (t *TUI) updateViews() {
	m := t.Repl.VM

	t.StackView.Clear()
	if len(t.Repl.LastResult) == 0 {
		fmt.Fprintln(t.StackView, "(empty)")
	} else {
		for i, v := range t.Repl.LastResult {
			fmt.Fprintf(t.StackView, "%3d  %s\n", i, tview.Escape(v.Format(&m.Arena)))
		}
	}

	t.ValuesView.Clear()
	for addr, v := range m.Values {
		fmt.Fprintf(t.ValuesView, "%4d  %-10s %s\n", addr, v.Kind, tview.Escape(v.Format(&m.Arena)))
	}

	t.BytecodeView.Clear()
	var sb strings.Builder
	compiler.Disassemble(m, &sb)
	fmt.Fprint(t.BytecodeView, tview.Escape(sb.String()))
}

// Run starts the TUI event loop
func (t *TUI) Run() error {
	t.updateViews()
	fmt.Fprintln(t.OutputView, "funk - type expressions to evaluate, :help for commands, Esc to exit")
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.EntryInput).Run()
}
