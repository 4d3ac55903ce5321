package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Clamp01 clamps a scalar into the [0, 1] range. NaN clamps to 0.
//
// Parameters:
//   - v: the value to clamp
//
// Returns:
//   - float32: v limited to [0, 1]
func Clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	return math32.Min(v, 1)
}

// Lerp linearly interpolates between two scalars. The factor is not clamped.
//
// Parameters:
//   - a: the value at t = 0
//   - b: the value at t = 1
//   - t: interpolation factor
//
// Returns:
//   - float32: a + (b-a)*t
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpVec3 linearly interpolates each component of two vectors.
//
// Parameters:
//   - a: the vector at t = 0
//   - b: the vector at t = 1
//   - t: interpolation factor
//
// Returns:
//   - mgl32.Vec3: the interpolated vector
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t), Lerp(a[2], b[2], t)}
}

// LerpVec4 linearly interpolates each component of two 4-vectors.
//
// Parameters:
//   - a: the vector at t = 0
//   - b: the vector at t = 1
//   - t: interpolation factor
//
// Returns:
//   - mgl32.Vec4: the interpolated vector
func LerpVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return mgl32.Vec4{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t), Lerp(a[2], b[2], t), Lerp(a[3], b[3], t)}
}

// MoveTowards moves current toward target by at most maxDelta without overshooting.
//
// Parameters:
//   - current: the starting value
//   - target: the value to approach
//   - maxDelta: the largest step allowed (negative values are treated as 0)
//
// Returns:
//   - float32: the stepped value
func MoveTowards(current, target, maxDelta float32) float32 {
	if maxDelta <= 0 {
		return current
	}
	if math32.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// SlerpShortest spherically interpolates between two rotations along the shorter arc and
// renormalizes the result. At t >= 1 the result is b itself (normalized).
//
// Parameters:
//   - a: the rotation at t = 0
//   - b: the rotation at t = 1
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - mgl32.Quat: the interpolated unit rotation
func SlerpShortest(a, b mgl32.Quat, t float32) mgl32.Quat {
	if t <= 0 {
		return a.Normalize()
	}
	if t >= 1 {
		return b.Normalize()
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, t).Normalize()
}

// QuatFromXYZW builds a quaternion from (x, y, z, w) ordered components, the layout used by
// pose assets and glTF.
//
// Parameters:
//   - v: the components in x, y, z, w order
//
// Returns:
//   - mgl32.Quat: the quaternion
func QuatFromXYZW(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// QuatToXYZW flattens a quaternion into (x, y, z, w) order.
//
// Parameters:
//   - q: the quaternion
//
// Returns:
//   - [4]float32: the components in x, y, z, w order
func QuatToXYZW(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// Near reports whether two scalars differ by at most epsilon. An epsilon of 0 demands exact
// equality.
//
// Parameters:
//   - a, b: the scalars to compare
//   - epsilon: absolute tolerance
//
// Returns:
//   - bool: true if |a-b| <= epsilon
func Near(a, b, epsilon float32) bool {
	return math32.Abs(a-b) <= epsilon
}

// Vec3Near compares two vectors component-wise with an absolute tolerance.
// mgl32's ApproxEqualThreshold is relative, which is too strict around zero.
func Vec3Near(a, b mgl32.Vec3, epsilon float32) bool {
	return Near(a[0], b[0], epsilon) && Near(a[1], b[1], epsilon) && Near(a[2], b[2], epsilon)
}

// Vec4Near compares two 4-vectors component-wise with an absolute tolerance.
func Vec4Near(a, b mgl32.Vec4, epsilon float32) bool {
	return Near(a[0], b[0], epsilon) && Near(a[1], b[1], epsilon) && Near(a[2], b[2], epsilon) && Near(a[3], b[3], epsilon)
}

// QuatNear compares two quaternions component-wise with an absolute tolerance.
func QuatNear(a, b mgl32.Quat, epsilon float32) bool {
	return Near(a.W, b.W, epsilon) && Vec3Near(a.V, b.V, epsilon)
}

// QuatSameOrientation reports whether two quaternions describe the same rotation within epsilon.
// q and -q are treated as equal.
//
// Parameters:
//   - a, b: the rotations to compare
//   - epsilon: per-component absolute tolerance
//
// Returns:
//   - bool: true if the rotations match
func QuatSameOrientation(a, b mgl32.Quat, epsilon float32) bool {
	return QuatNear(a, b, epsilon) || QuatNear(a, b.Scale(-1), epsilon)
}

// IsFinite reports whether every passed scalar is neither NaN nor infinite.
//
// Parameters:
//   - values: the scalars to check
//
// Returns:
//   - bool: true if all values are finite
func IsFinite(values ...float32) bool {
	for _, v := range values {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ToAngleAxis decomposes a rotation into a shortest-arc angle in radians and a unit axis.
// A rotation too close to identity yields a zero angle and a zero axis.
//
// Parameters:
//   - q: the rotation to decompose
//
// Returns:
//   - float32: rotation angle in radians within [0, pi]
//   - mgl32.Vec3: the unit rotation axis
func ToAngleAxis(q mgl32.Quat) (float32, mgl32.Vec3) {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	w := math32.Min(q.W, 1)
	angle := 2 * math32.Acos(w)
	s := math32.Sqrt(1 - w*w)
	if s < 1e-6 {
		return 0, mgl32.Vec3{}
	}
	return angle, q.V.Mul(1 / s)
}
