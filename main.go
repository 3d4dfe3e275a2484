package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/peterh/liner"

	"github.com/mythos-lang/mythos/driver"
	"github.com/mythos-lang/mythos/hostlib"
	"github.com/mythos-lang/mythos/vm"
)

// history follows anma's main.go convention of storing REPL history
// under the user's XDG data directory (`anma/.anma_history` there,
// `mythos/.mythos_history` here).
var history = filepath.Join(xdg.DataHome, "mythos", ".mythos_history")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			usage()
			os.Exit(2)
		}
		code = runFile(fs.Arg(0))
	case "repl":
		code = runPrompt()
	case "build":
		fs := flag.NewFlagSet("build", flag.ExitOnError)
		out := fs.String("o", "", "output path (defaults to <file>.myc)")
		fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			usage()
			os.Exit(2)
		}
		code = buildFile(fs.Arg(0), *out)
	default:
		usage()
		os.Exit(2)
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mythos run <file> | mythos repl | mythos build <file> [-o out.myc]")
}

// newVM wires every default builtin plus whatever hostlib was linked
// in at build time (spec.md §9: RegisterHost/RegisterRender are no-ops
// unless built with the mythos_host/mythos_render tags).
func newVM() *vm.VM {
	m := vm.New()
	hostlib.RegisterHost(m)
	hostlib.RegisterRender(m)
	return m
}

// runFile implements spec.md §6's `run <file>`: exit 0 on success, 1
// on a compile error, 2 on a runtime error.
func runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	m := newVM()
	code, err := driver.Compile(string(source))
	if err != nil {
		printErr(err)
		return 1
	}
	if _, err := m.Run(code); err != nil {
		printErr(err)
		return 2
	}
	return 0
}

// buildFile implements spec.md §6's `build <file>`: compile and
// serialize the result via driver.Build's MYC1 format.
func buildFile(path, out string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".myc"
	}
	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()
	if err := driver.Build(f, string(source)); err != nil {
		printErr(err)
		return 1
	}
	return 0
}

// runPrompt implements spec.md §6's repl: read a line, compile it as a
// statement or expression, print the result if the line was an
// expression, and keep the same VM (and its globals) across lines.
func runPrompt() int {
	line := liner.NewLiner()
	defer func() {
		if err := os.MkdirAll(filepath.Dir(history), os.ModePerm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if f, err := os.Create(history); err == nil {
			defer f.Close()
			if _, err := line.WriteHistory(f); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		line.Close()
	}()

	if f, err := os.Open(history); err == nil {
		defer f.Close()
		if _, err := line.ReadHistory(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	m := newVM()
	hostlib.Liner = line

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			return 0
		}
		line.AppendHistory(input)

		result, err := driver.RunSource(m, input)
		if err != nil {
			printErr(err)
			continue
		}
		if _, isNull := result.(vm.Null); !isNull {
			fmt.Println(result.String())
		}
	}
}

// printErr unwraps interface{ Unwrap() []error }, matching anma's
// main.go's joined-error printing.
func printErr(err error) {
	if errs, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range errs.Unwrap() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", e)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
