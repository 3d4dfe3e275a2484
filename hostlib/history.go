//go:build mythos_host

// history.go backs save_history(path)/load_history(path) builtins on
// top of github.com/peterh/liner's own history read/write, reusing
// the exact library the REPL itself uses for line editing (see
// main.go's runPrompt) rather than inventing a second history format.
package hostlib

import (
	"os"

	"github.com/mythos-lang/mythos/vm"
)

// RegisterHistory installs save_history/load_history.
func RegisterHistory(m *vm.VM) {
	m.RegisterBuiltin("save_history", 1, saveHistory)
	m.RegisterBuiltin("load_history", 1, loadHistory)
}

func saveHistory(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	path, ok := args[0].(vm.String)
	if !ok {
		return nil, vm.TypeError("save_history expects a string path")
	}
	if Liner == nil {
		return vm.Bool(false), nil
	}
	f, err := os.Create(string(path))
	if err != nil {
		return nil, vm.NewHostError("save_history: %v", err)
	}
	defer f.Close()
	if _, err := Liner.WriteHistory(f); err != nil {
		return nil, vm.NewHostError("save_history: %v", err)
	}
	return vm.Bool(true), nil
}

func loadHistory(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	path, ok := args[0].(vm.String)
	if !ok {
		return nil, vm.TypeError("load_history expects a string path")
	}
	if Liner == nil {
		return vm.Bool(false), nil
	}
	f, err := os.Open(string(path))
	if err != nil {
		return vm.Bool(false), nil
	}
	defer f.Close()
	if _, err := Liner.ReadHistory(f); err != nil {
		return nil, vm.NewHostError("load_history: %v", err)
	}
	return vm.Bool(true), nil
}
