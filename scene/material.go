package scene

import "github.com/luculentus/pathtracer/types"

type MaterialType uint8

const (
	DiffuseMaterial MaterialType = iota
	EmissiveMaterial
)

// Defines a scene material.
type Material struct {
	// The type of the material.
	Type MaterialType

	// Diffuse color.
	Diffuse types.Vec3

	// Emissive color (if material is light).
	Emissive types.Vec3
}
