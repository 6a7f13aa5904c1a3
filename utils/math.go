package utils

import "golang.org/x/exp/constraints"

// Min returns the smaller value between two numbers.
func Min[T constraints.Ordered](x, y T) T {
	if x < y {
		return x
	}
	return y
}

// Max returns the bigger value between two numbers.
func Max[T constraints.Ordered](x, y T) T {
	if x > y {
		return x
	}
	return y
}

// Abs returns the absolut value of x.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp restricts v to the [lo, hi] interval. When lo > hi the lower bound wins.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return Max(lo, Min(hi, v))
}

// Lerp interpolates linearly between a and b.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}
