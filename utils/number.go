package utils

type number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// IsInRange reports lo <= value <= hi.
func IsInRange[T number](lo, value, hi T) bool {
	return lo <= value && value <= hi
}

// Clamp limits value to [lo, hi]. lo must not exceed hi.
func Clamp[T number](value, lo, hi T) T {
	return max(lo, min(value, hi))
}
