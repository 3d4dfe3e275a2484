//go:build !mythos_render

package hostlib

import "github.com/mythos-lang/mythos/vm"

// RegisterRender is a no-op without the mythos_render tag: headless
// builds and CI should not require a GPU-capable display driver just
// to link ebiten, per SPEC_FULL.md §9. __scene falls back to the
// core's diagnostic-raising default (vm/builtins.go).
func RegisterRender(m *vm.VM) {}
