package scene

import (
	"math"

	"github.com/luculentus/pathtracer/types"
)

// CameraDirection identifies one of the four planar movement directions the
// interactive UI shell can move the camera along.
type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
)

// The camera type controls the scene camera. Only the state needed to seed
// the trace unit's background/ray-origin sampling is kept; the projection
// and frustum math a full rasterizer would need is out of scope here (the
// structure of the scene, per the spec's non-goals, is not this repo's
// concern).
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	// Camera FOV, in radians.
	FOV float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.XYZ(0, 0, 0),
		LookAt:   types.XYZ(0, 0, -1),
		Up:       types.XYZ(0, 1, 0),
		FOV:      fov,
	}
}

// Move the camera along one of the four planar directions relative to its
// current look direction.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	forward := c.LookAt.Sub(c.Position).Normalize()
	strafe := forward.Cross(c.Up).Normalize()

	switch dir {
	case Forward:
		c.Position = c.Position.Add(forward.Mul(amount))
	case Backward:
		c.Position = c.Position.Sub(forward.Mul(amount))
	case Left:
		c.Position = c.Position.Sub(strafe.Mul(amount))
	case Right:
		c.Position = c.Position.Add(strafe.Mul(amount))
	}
	c.Update()
}

// Update recomputes LookAt from the current position, yaw and pitch.
func (c *Camera) Update() {
	dist := c.LookAt.Sub(c.Position).Len()
	if dist < 1e-6 {
		dist = 1.0
	}

	dir := yawPitchToDir(c.Yaw, c.Pitch)
	c.LookAt = c.Position.Add(dir.Mul(dist))
}

// yawPitchToDir converts yaw/pitch angles (radians) into a unit direction
// vector, using the same right-handed convention as the rest of the scene
// package (+Y up, -Z forward at yaw=pitch=0).
func yawPitchToDir(yaw, pitch float32) types.Vec3 {
	sinYaw, cosYaw := math.Sincos(float64(yaw))
	sinPitch, cosPitch := math.Sincos(float64(pitch))
	return types.XYZ(
		float32(sinYaw*cosPitch),
		float32(sinPitch),
		float32(-cosYaw*cosPitch),
	).Normalize()
}
