package repl

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/funk-lang/funk/compiler"
)

// GUI is the graphical session window: an entry field plus panels for the
// result stack, value pool, compiled bytecode, and console output.
type GUI struct {
	// Core components
	Repl   *Repl
	App    fyne.App
	Window fyne.Window

	// View panels
	StackView    *widget.TextGrid
	ValuesView   *widget.TextGrid
	BytecodeView *widget.TextGrid
	ConsoleView  *widget.TextGrid
	StatusLabel  *widget.Label

	// Controls
	EntryField *widget.Entry
	Toolbar    *widget.Toolbar

	// Console output buffer
	consoleBuffer strings.Builder
	consoleMutex  sync.Mutex
}

// guiWriter redirects VM output to the GUI console
type guiWriter struct {
	gui *GUI
}

// Write implements io.Writer interface
func (w *guiWriter) Write(p []byte) (n int, err error) {
	w.gui.consoleMutex.Lock()
	defer w.gui.consoleMutex.Unlock()

	w.gui.consoleBuffer.Write(p)
	w.gui.updateConsole()
	return len(p), nil
}

// RunGUI runs the graphical session
func RunGUI(r *Repl) error {
	gui := newGUI(r)
	gui.Window.ShowAndRun()
	return nil
}

// newGUI creates a new graphical session window
func newGUI(r *Repl) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("funk")

	gui := &GUI{
		Repl:   r,
		App:    myApp,
		Window: myWindow,
	}

	gui.initializeViews()
	gui.buildLayout()

	// Redirect VM output to the GUI console
	r.VM.OutputWriter = &guiWriter{gui: gui}

	myWindow.Resize(fyne.NewSize(1100, 700))

	return gui
}

// initializeViews creates all the view panels
func (g *GUI) initializeViews() {
	g.StackView = widget.NewTextGrid()
	g.StackView.SetText("(empty)")

	g.ValuesView = widget.NewTextGrid()
	g.BytecodeView = widget.NewTextGrid()

	g.ConsoleView = widget.NewTextGrid()
	g.ConsoleView.SetText("")

	g.StatusLabel = widget.NewLabel("Ready")

	g.EntryField = widget.NewEntry()
	g.EntryField.SetPlaceHolder("(+ 1 2)")
	g.EntryField.OnSubmitted = func(string) { g.evalEntry() }

	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
			g.evalEntry()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			g.Repl.Reset()
			g.Repl.VM.OutputWriter = &guiWriter{gui: g}
			g.consoleBuffer.Reset()
			g.ConsoleView.SetText("")
			g.updateViews()
			g.StatusLabel.SetText("State cleared")
		}),
	)
}

// buildLayout creates the main layout
func (g *GUI) buildLayout() {
	stackPanel := container.NewBorder(
		widget.NewLabel("Result Stack"),
		nil, nil, nil,
		container.NewScroll(g.StackView),
	)

	valuesPanel := container.NewBorder(
		widget.NewLabel("Value Pool"),
		nil, nil, nil,
		container.NewScroll(g.ValuesView),
	)

	bytecodePanel := container.NewBorder(
		widget.NewLabel("Bytecode"),
		nil, nil, nil,
		container.NewScroll(g.BytecodeView),
	)

	consolePanel := container.NewBorder(
		widget.NewLabel("Console Output"),
		nil, nil, nil,
		container.NewScroll(g.ConsoleView),
	)

	// Left side: console on top of the result stack
	leftPanel := container.NewVSplit(consolePanel, stackPanel)
	leftPanel.SetOffset(0.7)

	// Right side: value pool and bytecode tabs
	rightTabs := container.NewAppTabs(
		container.NewTabItem("Bytecode", bytecodePanel),
		container.NewTabItem("Values", valuesPanel),
	)

	mainSplit := container.NewHSplit(leftPanel, rightTabs)
	mainSplit.SetOffset(0.55)

	entryBar := container.NewBorder(nil, nil, widget.NewLabel(g.Repl.Prompt), nil, g.EntryField)
	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)
	bottom := container.NewVBox(entryBar, statusBar)

	content := container.NewBorder(
		g.Toolbar, // top
		bottom,    // bottom
		nil,       // left
		nil,       // right
		mainSplit, // center
	)

	g.Window.SetContent(content)
}

// evalEntry evaluates the text in the entry field
func (g *GUI) evalEntry() {
	line := strings.TrimSpace(g.EntryField.Text)
	if line == "" {
		return
	}
	g.EntryField.SetText("")
	g.Repl.History.Add(line)

	g.appendConsole(fmt.Sprintf("%s%s\n", g.Repl.Prompt, line))

	if strings.HasPrefix(line, ":") {
		var out strings.Builder
		if quit := g.Repl.Command(line, &out); quit {
			g.App.Quit()
			return
		}
		g.appendConsole(out.String())
		g.updateViews()
		return
	}

	if err := g.Repl.Eval(line); err != nil {
		g.appendConsole(err.Error())
		g.StatusLabel.SetText("Error")
	} else {
		g.StatusLabel.SetText("OK")
	}
	g.updateViews()
}

// appendConsole adds text to the console buffer and refreshes the view
func (g *GUI) appendConsole(text string) {
	g.consoleMutex.Lock()
	defer g.consoleMutex.Unlock()
	g.consoleBuffer.WriteString(text)
	g.updateConsole()
}

// updateConsole refreshes the console panel from the buffer, keeping the
// last screenful of lines.
func (g *GUI) updateConsole() {
	const maxLines = 200
	lines := strings.Split(g.consoleBuffer.String(), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	g.ConsoleView.SetText(strings.Join(lines, "\n"))
	g.ConsoleView.Refresh()
}

// updateViews refreshes the stack, value pool, and bytecode panels
func (g *GUI) updateViews() {
	m := g.Repl.VM

	var stack strings.Builder
	if len(g.Repl.LastResult) == 0 {
		stack.WriteString("(empty)")
	} else {
		for i, v := range g.Repl.LastResult {
			fmt.Fprintf(&stack, "%3d  %s\n", i, v.Format(&m.Arena))
		}
	}
	g.StackView.SetText(stack.String())

	var values strings.Builder
	for addr, v := range m.Values {
		fmt.Fprintf(&values, "%4d  %-10s %s\n", addr, v.Kind, v.Format(&m.Arena))
	}
	g.ValuesView.SetText(values.String())

	var bytecode strings.Builder
	compiler.Disassemble(m, &bytecode)
	g.BytecodeView.SetText(bytecode.String())
}
