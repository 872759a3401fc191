package types

// GrowthFactor is the over-allocation applied when a slice grows lazily.
const GrowthFactor = 1.25

// GrowSlice returns a slice of length newLen holding the contents of s. When
// the capacity of s is insufficient the backing array is reallocated with
// GrowthFactor over-allocation, so repeated single element growth is amortized.
func GrowSlice[T any](s []T, newLen int) []T {
	if newLen <= len(s) {
		return s
	}
	if newLen <= cap(s) {
		return s[:newLen]
	}
	newCap := int(float64(newLen) * GrowthFactor)
	if newCap < newLen+1 {
		newCap = newLen + 1
	}
	bigger := make([]T, newLen, newCap)
	copy(bigger, s)
	return bigger
}
