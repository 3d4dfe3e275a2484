//go:build mythos_host

// config.go backs a load_config(path) builtin that parses a TOML scene/
// route manifest into a Mythos Object, using github.com/BurntSushi/toml
// (present in both chazu-maggie's and phroun-pawscript's dependency
// graphs) rather than hand-rolling a parser for a format the ecosystem
// already covers well.
package hostlib

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/mythos-lang/mythos/vm"
)

// RegisterConfig installs load_config.
func RegisterConfig(m *vm.VM) {
	m.RegisterBuiltin("load_config", 1, loadConfig)
}

func loadConfig(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	path, ok := args[0].(vm.String)
	if !ok {
		return nil, vm.TypeError("load_config expects a string path")
	}
	var raw map[string]any
	if _, err := toml.DecodeFile(string(path), &raw); err != nil {
		return nil, vm.NewHostError("load_config %q: %v", string(path), err)
	}
	return tomlToValue(raw), nil
}

// tomlToValue converts the decoder's generic any-tree into Mythos
// values, mirroring constantToValue's scalar mapping (vm/vm.go) but
// recursing through nested tables and arrays.
func tomlToValue(v any) vm.Value {
	switch x := v.(type) {
	case map[string]any:
		obj := vm.NewObject()
		for k, val := range x {
			obj.Set(k, tomlToValue(val))
		}
		return obj
	case []map[string]any:
		elems := make([]vm.Value, len(x))
		for i, val := range x {
			elems[i] = tomlToValue(val)
		}
		return vm.NewArray(elems)
	case []any:
		elems := make([]vm.Value, len(x))
		for i, val := range x {
			elems[i] = tomlToValue(val)
		}
		return vm.NewArray(elems)
	case string:
		return vm.String(x)
	case bool:
		return vm.Bool(x)
	case int64:
		return vm.Number(float64(x))
	case float64:
		return vm.Number(x)
	case nil:
		return vm.Null{}
	default:
		return vm.String(fmt.Sprintf("%v", x))
	}
}
