package transition

import "math"

type policy int

const (
	lerpPolicy policy = iota
	midpointPolicy
	instantPolicy
)

// Field describes how one member of a parameter set moves from old to target.
type Field[P any] struct {
	Name   string
	policy policy
	resets bool

	blend   func(dst, old, target *P, t float64)
	differs func(a, b *P) bool
	assign  func(dst, src *P)
}

// Lerp interpolates a continuous value linearly.
func Lerp[P any](name string, ref func(*P) *float64) Field[P] {
	return Field[P]{
		Name:   name,
		policy: lerpPolicy,
		blend: func(dst, old, target *P, t float64) {
			a, b := *ref(old), *ref(target)
			*ref(dst) = a + t*(b-a)
		},
	}
}

// LerpInt interpolates an integral value, rounding to the nearest step.
func LerpInt[P any](name string, ref func(*P) *int) Field[P] {
	return Field[P]{
		Name:   name,
		policy: lerpPolicy,
		blend: func(dst, old, target *P, t float64) {
			a, b := float64(*ref(old)), float64(*ref(target))
			*ref(dst) = int(math.Round(a + t*(b-a)))
		},
	}
}

// Midpoint flips a flag once the blend is half way through.
func Midpoint[P any](name string, ref func(*P) *bool) Field[P] {
	return Field[P]{
		Name:   name,
		policy: midpointPolicy,
		blend: func(dst, old, target *P, t float64) {
			if t >= 0.5 {
				*ref(dst) = *ref(target)
			} else {
				*ref(dst) = *ref(old)
			}
		},
	}
}

// Instant applies a value the moment it is set, bypassing the blend.
func Instant[P any, V comparable](name string, ref func(*P) *V) Field[P] {
	return Field[P]{
		Name:    name,
		policy:  instantPolicy,
		differs: func(a, b *P) bool { return *ref(a) != *ref(b) },
		assign:  func(dst, src *P) { *ref(dst) = *ref(src) },
	}
}

// Count is an instant integer that sizes the effect's entities.
func Count[P any](name string, ref func(*P) *int) Field[P] {
	return Instant(name, ref).Resets()
}

// Resets marks an instant field whose change rebuilds the effect's entity state.
func (f Field[P]) Resets() Field[P] {
	f.resets = true
	return f
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
