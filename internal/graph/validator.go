// Package graph checks the structural invariants of a process's task graph.
// It is pure logic over definition records; it never touches the store.
package graph

import (
	"fmt"

	"taskman/internal/domain"
)

// Validate checks that every non-nil edge endpoint resolves to a task of the
// same process. The check duplicates what edge creation already enforces, so
// it can only fail when tasks were removed out of band.
//
// Deliberately lenient beyond that: cycles, disconnected tasks, and graphs
// with no entry or exit edge all pass. Advancement is driven by explicit
// status-transition calls, so the engine has no topological requirements.
func Validate(processID uint, tasks []domain.Task, edges []domain.WorkflowEdge) error {
	members := make(map[uint]bool, len(tasks))
	for _, t := range tasks {
		if t.ProcessID == processID {
			members[t.ID] = true
		}
	}

	var problems []string
	for _, e := range edges {
		if e.FromTaskID != nil && !members[*e.FromTaskID] {
			problems = append(problems,
				fmt.Sprintf("edge %d: from_task %d is not a task of process %d", e.ID, *e.FromTaskID, processID))
		}
		if e.ToTaskID != nil && !members[*e.ToTaskID] {
			problems = append(problems,
				fmt.Sprintf("edge %d: to_task %d is not a task of process %d", e.ID, *e.ToTaskID, processID))
		}
	}

	if len(problems) > 0 {
		return &domain.GraphInvalidError{ProcessID: processID, Problems: problems}
	}
	return nil
}
