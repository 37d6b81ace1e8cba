package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func dims2x2() []Dimension {
	return []Dimension{
		{
			Id:   "color",
			Name: "Color",
			Values: []Value{
				{Id: "A", Label: "Alpine"},
				{Id: "B", Label: "Black"},
			},
		},
		{
			Id:   "size",
			Name: "Size",
			Values: []Value{
				{Id: "S", Label: "Small"},
				{Id: "M", Label: "Medium"},
			},
		},
	}
}

func TestCombinationsDimensionMajorOrder(t *testing.T) {
	combos := Combinations(dims2x2())

	var keys []string
	for _, c := range combos {
		keys = append(keys, c.Key())
	}
	expected := []string{"A/S", "A/M", "B/S", "B/M"}
	if diff := cmp.Diff(expected, keys); diff != "" {
		t.Fatalf("unexpected combination order (-want +got):\n%s", diff)
	}
}

func TestCombinationsCarryDimensionIds(t *testing.T) {
	combos := Combinations(dims2x2())
	require.Len(t, combos, 4)
	for _, c := range combos {
		require.Equal(t, "color", c[0].Dimension)
		require.Equal(t, "size", c[1].Dimension)
	}
}

func TestCombinationCount(t *testing.T) {
	require.Equal(t, 4, CombinationCount(dims2x2()))
	require.Equal(t, 0, CombinationCount(nil))

	three := append(dims2x2(), Dimension{
		Id:     "width",
		Values: []Value{{Id: "W1"}, {Id: "W2"}, {Id: "W3"}},
	})
	require.Equal(t, 12, CombinationCount(three))
	require.Len(t, Combinations(three), 12)
}

func TestCombinationsAreIndependentCopies(t *testing.T) {
	combos := Combinations(dims2x2())
	combos[0][0].Value.Id = "mutated"
	require.Equal(t, "A", combos[1][0].Value.Id)
}
