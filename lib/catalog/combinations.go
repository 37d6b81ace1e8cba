package catalog

// CombinationCount is the size of the full cartesian product over
// the given dimensions.
func CombinationCount(dims []Dimension) int {
	if len(dims) == 0 {
		return 0
	}
	count := 1
	for _, d := range dims {
		count *= len(d.Values)
	}
	return count
}

// Combinations enumerates the full cartesian product of the
// dimensions' values, dimension-major: the first dimension varies
// slowest. Pure and deterministic; callers owning an unbounded
// product should apply their own ceiling and truncate.
func Combinations(dims []Dimension) []Combination {
	if len(dims) == 0 {
		return nil
	}

	out := make([]Combination, 0, CombinationCount(dims))
	current := make(Combination, len(dims))

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(dims) {
			combo := make(Combination, len(current))
			copy(combo, current)
			out = append(out, combo)
			return
		}
		for _, v := range dims[depth].Values {
			current[depth] = Selection{Dimension: dims[depth].Id, Value: v}
			walk(depth + 1)
		}
	}
	walk(0)

	return out
}
