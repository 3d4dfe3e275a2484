//go:build mythos_render

// Package hostlib's render.go backs the reserved `scene` declaration
// with a real rendering surface, grounded on smasonuk-sicpu's
// ebiten-based framebuffer (cmd/desktop/main.go's Game.drawBitmap):
// an offscreen ebiten.Image filled by primitive builtins and flushed
// to a PNG on demand, without needing ebiten.RunGame's display loop.
package hostlib

import (
	"image/color"
	"image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/mythos-lang/mythos/vm"
)

const canvasSize = 256

// scene holds the accumulated drawing state for one `scene` block
// between its declaration and a `scene.snapshot(name, path)` call.
type scene struct {
	name string
	body vm.Value
	img  *ebiten.Image
}

var scenes = map[string]*scene{}

// RegisterRender installs __scene plus the scene.create_cube/
// scene.create_sphere/scene.snapshot builtins, shadowing the core's
// diagnostic-raising __scene default (vm/builtins.go).
func RegisterRender(m *vm.VM) {
	m.RegisterBuiltin("__scene", 2, registerScene)
	m.RegisterBuiltin("scene.create_cube", 4, sceneCreateCube)
	m.RegisterBuiltin("scene.create_sphere", 3, sceneCreateSphere)
	m.RegisterBuiltin("scene.snapshot", 2, sceneSnapshot)
}

func registerScene(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	name, ok := args[0].(vm.String)
	if !ok {
		return nil, vm.TypeError("scene name must be a string")
	}
	scenes[string(name)] = &scene{
		name: string(name),
		body: args[1],
		img:  ebiten.NewImage(canvasSize, canvasSize),
	}
	return vm.Null{}, nil
}

func sceneName(args []vm.Value) (*scene, error) {
	name, ok := args[0].(vm.String)
	if !ok {
		return nil, vm.TypeError("expected a scene name")
	}
	s, ok := scenes[string(name)]
	if !ok {
		return nil, vm.NameError("no scene named %q", string(name))
	}
	return s, nil
}

// sceneCreateCube draws a filled rectangle standing in for a cube's
// projected silhouette — spec.md's scene primitives are 2D placeholders
// for a 3D host renderer a real embedder would substitute.
func sceneCreateCube(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	s, err := sceneName(args)
	if err != nil {
		return nil, err
	}
	x, y, size, err := xySize(args[1], args[2], args[3])
	if err != nil {
		return nil, err
	}
	vector.DrawFilledRect(s.img, x, y, size, size, color.RGBA{R: 200, G: 120, B: 60, A: 255}, false)
	return vm.Null{}, nil
}

func sceneCreateSphere(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	s, err := sceneName(args)
	if err != nil {
		return nil, err
	}
	x, y, radius, err := xySize(args[1], args[2], vm.Number(0))
	if err != nil {
		return nil, err
	}
	vector.DrawFilledCircle(s.img, x, y, radius, color.RGBA{R: 60, G: 140, B: 220, A: 255}, false)
	return vm.Null{}, nil
}

func xySize(xv, yv, sv vm.Value) (float32, float32, float32, error) {
	x, ok1 := xv.(vm.Number)
	y, ok2 := yv.(vm.Number)
	s, ok3 := sv.(vm.Number)
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, 0, vm.TypeError("expected numeric coordinates")
	}
	return float32(x), float32(y), float32(s), nil
}

// sceneSnapshot invokes the scene's body closure (so it can run any
// Mythos-level setup against the scene before the capture) and then
// encodes the accumulated canvas to path as a PNG.
func sceneSnapshot(m *vm.VM, args []vm.Value) (vm.Value, error) {
	s, err := sceneName(args)
	if err != nil {
		return nil, err
	}
	path, ok := args[1].(vm.String)
	if !ok {
		return nil, vm.TypeError("snapshot path must be a string")
	}
	if s.body != nil {
		if _, err := m.Call(s.body, nil); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(string(path))
	if err != nil {
		return nil, vm.NewHostError("cannot create snapshot file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, s.img); err != nil {
		return nil, vm.NewHostError("cannot encode snapshot: %v", err)
	}
	return vm.String(string(path)), nil
}
