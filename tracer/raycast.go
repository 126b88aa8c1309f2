package tracer

import (
	"math"
	"math/rand"

	"github.com/luculentus/pathtracer/scene"
	"github.com/luculentus/pathtracer/types"
)

// ray is a minimal origin/direction pair; the full BSDF/BVH machinery a
// production renderer would use is out of scope (SPEC_FULL.md §1
// Non-goals: the physics of light transport).
type ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

const maxBounces = 2

// cameraRay builds a jittered primary ray through pixel (x, y) of a
// width x height image, using the camera's position/orientation and a
// simple pinhole projection.
func cameraRay(cam *scene.Camera, width, height, x, y int, rnd *rand.Rand) ray {
	forward := cam.LookAt.Sub(cam.Position).Normalize()
	right := forward.Cross(cam.Up).Normalize()
	up := right.Cross(forward).Normalize()

	aspect := float32(width) / float32(height)
	halfHeight := float32(math.Tan(float64(cam.FOV) * 0.5))
	halfWidth := halfHeight * aspect

	u := (float32(x)+rnd.Float32())/float32(width)*2 - 1
	v := 1 - (float32(y)+rnd.Float32())/float32(height)*2

	dir := forward.
		Add(right.Mul(u * halfWidth)).
		Add(up.Mul(v * halfHeight)).
		Normalize()

	return ray{Origin: cam.Position, Dir: dir}
}

// traceRay walks up to maxBounces diffuse bounces through sc and returns a
// scalar luminance estimate for the path. It is a bounded, cheap analytic
// placeholder standing in for the real light-transport integrator (out of
// scope, see SPEC_FULL.md §4.5).
func traceRay(sc *scene.Scene, r ray, rnd *rand.Rand, depth int) float32 {
	prim, t, hit := intersectScene(sc, r)
	if !hit {
		return luminance(sc.BgColor)
	}

	switch prim.Material.Type {
	case scene.EmissiveMaterial:
		return luminance(prim.Material.Emissive)
	}

	if depth >= maxBounces {
		return luminance(prim.Material.Diffuse) * luminance(sc.BgColor)
	}

	hitPoint := r.Origin.Add(r.Dir.Mul(t))
	normal := primitiveNormal(prim, hitPoint)
	bounceDir := sampleHemisphere(normal, rnd)
	bounceRay := ray{Origin: hitPoint.Add(normal.Mul(1e-3)), Dir: bounceDir}

	incoming := traceRay(sc, bounceRay, rnd, depth+1)
	return luminance(prim.Material.Diffuse) * incoming
}

// intersectScene returns the nearest primitive hit by r, if any.
func intersectScene(sc *scene.Scene, r ray) (prim *scene.Primitive, t float32, hit bool) {
	if sc == nil {
		return nil, 0, false
	}

	const maxDist = float32(1e6)
	nearest := maxDist

	for _, p := range sc.Primitives {
		var dist float32
		var ok bool
		switch p.Type {
		case scene.SpherePrimitive:
			dist, ok = intersectSphere(p, r)
		case scene.PlanePrimitive:
			dist, ok = intersectPlane(p, r)
		default:
			continue
		}
		if ok && dist > 1e-4 && dist < nearest {
			nearest = dist
			prim = p
			hit = true
		}
	}
	return prim, nearest, hit
}

func intersectSphere(p *scene.Primitive, r ray) (float32, bool) {
	radius := p.Dimensions[0]
	oc := r.Origin.Sub(p.Origin)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

func intersectPlane(p *scene.Primitive, r ray) (float32, bool) {
	normal := p.Origin
	denom := normal.Dot(r.Dir)
	if denom > -1e-6 && denom < 1e-6 {
		return 0, false
	}
	planeDist := p.Dimensions[0]
	t := -(normal.Dot(r.Origin) + planeDist) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}

func primitiveNormal(p *scene.Primitive, hitPoint types.Vec3) types.Vec3 {
	switch p.Type {
	case scene.SpherePrimitive:
		return hitPoint.Sub(p.Origin).Normalize()
	default:
		return p.Origin
	}
}

// sampleHemisphere draws a cosine-weighted direction around normal.
func sampleHemisphere(normal types.Vec3, rnd *rand.Rand) types.Vec3 {
	u1, u2 := rnd.Float64(), rnd.Float64()
	r := math.Sqrt(u1)
	theta := 2 * math.Pi * u2
	lx := float32(r * math.Cos(theta))
	ly := float32(r * math.Sin(theta))
	lz := float32(math.Sqrt(1 - u1))

	tangent, bitangent := basis(normal)
	dir := tangent.Mul(lx).Add(bitangent.Mul(ly)).Add(normal.Mul(lz))
	return dir.Normalize()
}

// basis builds an orthonormal tangent/bitangent pair for normal.
func basis(normal types.Vec3) (types.Vec3, types.Vec3) {
	up := types.XYZ(0, 1, 0)
	if math.Abs(float64(normal.Dot(up))) > 0.99 {
		up = types.XYZ(1, 0, 0)
	}
	tangent := up.Cross(normal).Normalize()
	bitangent := normal.Cross(tangent)
	return tangent, bitangent
}

func luminance(c types.Vec3) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
