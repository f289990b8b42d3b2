package workflow

import (
	"cortex/pkg/errors"
)

// sortByDependencies orders actions so every action runs after all of its
// dependencies (Kahn's algorithm). Declaration order is preserved among
// actions that are ready at the same time. A dependency cycle fails the
// sort before anything executes; dependencies naming unknown action IDs
// are treated as already satisfied.
func sortByDependencies(actions []*Action) ([]*Action, error) {
	index := make(map[string]int, len(actions))
	for i, a := range actions {
		index[a.ID] = i
	}

	indegree := make([]int, len(actions))
	dependents := make([][]int, len(actions))
	for i, a := range actions {
		for _, dep := range a.Dependencies {
			j, ok := index[dep]
			if !ok {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var queue []int
	for i := range actions {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	sorted := make([]*Action, 0, len(actions))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		sorted = append(sorted, actions[i])

		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	if len(sorted) != len(actions) {
		return nil, errors.Wrapf(errors.ErrCycleDetected,
			"dependency graph is not a DAG: %d of %d actions unreachable",
			len(actions)-len(sorted), len(actions))
	}
	return sorted, nil
}
