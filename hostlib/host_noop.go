//go:build !mythos_host

package hostlib

import "github.com/mythos-lang/mythos/vm"

// RegisterHost is a no-op in the default build: the web/config/history
// builtins are absent, and __route falls back to the core's
// diagnostic-raising default (vm/builtins.go).
func RegisterHost(m *vm.VM) {}
