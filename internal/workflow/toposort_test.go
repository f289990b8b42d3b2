package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/pkg/errors"
)

func ids(actions []*Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}

func TestSortByDependencies_OrdersDependenciesFirst(t *testing.T) {
	actions := []*Action{
		{ID: "b", Dependencies: []string{"a"}},
		{ID: "c", Dependencies: []string{"b"}},
		{ID: "a"},
	}

	sorted, err := sortByDependencies(actions)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(sorted))
}

func TestSortByDependencies_PreservesDeclarationOrderWhenIndependent(t *testing.T) {
	actions := []*Action{
		{ID: "x"},
		{ID: "y"},
		{ID: "z"},
	}

	sorted, err := sortByDependencies(actions)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, ids(sorted))
}

func TestSortByDependencies_DetectsCycle(t *testing.T) {
	actions := []*Action{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	}

	_, err := sortByDependencies(actions)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCycleDetected))
}

func TestSortByDependencies_SelfCycle(t *testing.T) {
	actions := []*Action{{ID: "a", Dependencies: []string{"a"}}}

	_, err := sortByDependencies(actions)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCycleDetected))
}

func TestSortByDependencies_UnknownDependencyIgnored(t *testing.T) {
	actions := []*Action{
		{ID: "a", Dependencies: []string{"ghost"}},
		{ID: "b", Dependencies: []string{"a"}},
	}

	sorted, err := sortByDependencies(actions)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(sorted))
}

func TestSortByDependencies_Diamond(t *testing.T) {
	actions := []*Action{
		{ID: "d", Dependencies: []string{"b", "c"}},
		{ID: "b", Dependencies: []string{"a"}},
		{ID: "c", Dependencies: []string{"a"}},
		{ID: "a"},
	}

	sorted, err := sortByDependencies(actions)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, a := range sorted {
		pos[a.ID] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["a"], pos["c"])
	assert.Less(t, pos["b"], pos["d"])
	assert.Less(t, pos["c"], pos["d"])
}
