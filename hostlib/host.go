//go:build mythos_host

package hostlib

import "github.com/mythos-lang/mythos/vm"

// RegisterHost installs every mythos_host builtin (web, config,
// history) on m. main.go's newVM calls this unconditionally; the build tag
// on this file and host_noop.go picks which implementation compiles
// in, per spec.md §9's "hostlib-free by default" requirement.
func RegisterHost(m *vm.VM) {
	RegisterWeb(m)
	RegisterConfig(m)
	RegisterHistory(m)
}
