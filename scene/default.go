package scene

import "github.com/luculentus/pathtracer/types"

// NewDefaultScene builds a small procedurally generated scene: a diffuse
// floor plane and a couple of emissive/diffuse spheres, lit by a uniform sky
// background. It exists so the render command has something to point the
// scheduler at without needing a scene file loader (out of scope, see
// SPEC_FULL.md §1 Non-goals).
func NewDefaultScene() *Scene {
	s := NewScene()
	s.BgColor = types.XYZ(0.6, 0.75, 1.0)
	s.SetCamera(NewCamera(0.9))

	floor := &Material{Type: DiffuseMaterial, Diffuse: types.XYZ(0.75, 0.75, 0.75)}
	red := &Material{Type: DiffuseMaterial, Diffuse: types.XYZ(0.8, 0.2, 0.2)}
	light := &Material{Type: EmissiveMaterial, Emissive: types.XYZ(8, 8, 6)}

	_ = s.AddMaterial(floor)
	_ = s.AddMaterial(red)
	_ = s.AddMaterial(light)

	_ = s.AddPrimitive(NewPlane(types.XYZ(0, 1, 0), 0, floor))
	_ = s.AddPrimitive(NewSphere(types.XYZ(0, 1, -3), 1, red))
	_ = s.AddPrimitive(NewSphere(types.XYZ(2, 3, -4), 0.6, light))

	return s
}
