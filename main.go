package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/funk-lang/funk/config"
	"github.com/funk-lang/funk/loader"
	"github.com/funk-lang/funk/mos6502"
	"github.com/funk-lang/funk/repl"
	"github.com/funk-lang/funk/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command-line flags
	var (
		showVersion  = flag.Bool("version", false, "Show version information")
		showHelp     = flag.Bool("help", false, "Show help information")
		tuiMode      = flag.Bool("tui", false, "Use TUI (Text User Interface) session")
		guiMode      = flag.Bool("gui", false, "Use graphical session")
		replMode     = flag.Bool("repl", false, "Enter the interactive session after running a file")
		verboseMode  = flag.Bool("verbose", false, "Verbose output")
		bytecodeFile = flag.String("bytecode-file", "", "Disassembly dump file (default from config, bytecode.txt)")
		configFile   = flag.String("config", "", "Configuration file (default: platform config path)")
		dumpO65      = flag.Bool("dump-o65", false, "Compile with the experimental 6502 back-end and write <file>.o65")
	)

	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("funk %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		return 0
	}

	// Show help
	if *showHelp {
		printHelp()
		return 0
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	dumpPath := cfg.Dump.BytecodeFile
	if *bytecodeFile != "" {
		dumpPath = *bytecodeFile
	}

	// Experimental 6502 back-end: compile the file, write <file>.o65, done
	if *dumpO65 {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: -dump-o65 requires a source file")
			return 1
		}
		path := flag.Arg(0)
		if err := mos6502.RunFile(path); err != nil {
			printError(err)
			return 1
		}
		if *verboseMode {
			fmt.Printf("Wrote %s.o65\n", path)
		}
		return 0
	}

	machine := vm.NewVM()
	opts := loader.Options{BytecodeFile: dumpPath}

	// Execute a source file when one is given
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", path)
			return 1
		}

		if *verboseMode {
			fmt.Printf("Running %s\n", path)
		}

		if err := loader.RunFile(machine, path, opts); err != nil {
			printError(err)
			if !*replMode {
				return 1
			}
		} else if *verboseMode {
			machine.PrintStack(os.Stdout)
		}
		machine.ClearStack()

		if !*replMode {
			return 0
		}
	} else {
		// No arguments: load the startup file when present, then enter
		// the interactive session
		startup := cfg.Repl.StartupFile
		if startup != "" {
			if _, err := os.Stat(startup); err == nil {
				if *verboseMode {
					fmt.Printf("Loading %s\n", startup)
				}
				if err := loader.RunFile(machine, startup, opts); err != nil {
					printError(err)
				}
				machine.ClearStack()
			}
		}
	}

	// Interactive session
	session := repl.New(machine, repl.Options{
		Prompt:       cfg.Repl.Prompt,
		HistorySize:  cfg.Repl.HistorySize,
		ShowStack:    cfg.Repl.ShowStack,
		BytecodeFile: dumpPath,
	})

	switch {
	case *guiMode:
		if err := repl.RunGUI(session); err != nil {
			fmt.Fprintf(os.Stderr, "GUI error: %v\n", err)
			return 1
		}
	case *tuiMode:
		if err := repl.RunTUI(session); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			return 1
		}
	default:
		if err := repl.RunCLI(session); err != nil {
			fmt.Fprintf(os.Stderr, "Session error: %v\n", err)
			return 1
		}
	}

	return 0
}

// printError writes a diagnostic to stderr with a trailing newline
func printError(err error) {
	msg := err.Error()
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	fmt.Fprint(os.Stderr, msg)
}

func printHelp() {
	fmt.Printf(`funk %s - a small expression language

Usage: funk [options] [source-file]

With no arguments, funk loads the startup file (test.funk by default) when
it exists, then enters the interactive session. With a source file, funk
executes the file and exits.

Options:
  -help              Show this help message
  -version           Show version information
  -tui               Interactive session with a terminal UI
  -gui               Interactive session with a graphical UI
  -repl              Enter the interactive session after running a file
  -verbose           Enable verbose output
  -bytecode-file F   Disassembly dump file (default: bytecode.txt)
  -config FILE       Configuration file (default: platform config path)
  -dump-o65          Compile with the experimental 6502 back-end
                     and write <file>.o65

Examples:
  # Interactive session
  funk

  # Run a program
  funk examples/fact.funk

  # Run a program, then keep the session open
  funk -repl examples/fact.funk

  # Terminal UI session with stack, value pool, and bytecode panels
  funk -tui

  # Emit 6502 bytes for a program
  funk -dump-o65 examples/zeropage.funk

Session commands (inside the interactive session):
  :help              Show session commands
  :bytecode          Disassemble the compiled program
  :values            Dump the value pool
  :reset             Discard all definitions
  :quit              Exit

Configuration is read from %s.
`, Version, config.GetConfigPath())
}
