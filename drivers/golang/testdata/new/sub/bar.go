package sub

// Double returns twice x.
func Double(x int) int {
	return x * 2
}

type Pair[K comparable, V any] struct {
	Key   K
	Value V
}
