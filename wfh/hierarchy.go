package wfh

import (
	"context"
	"fmt"
)

// Subordinates returns everyone below managerID in the reporting tree,
// breadth-first (direct reports first). The organisational root reports to
// itself; that self-reference and any other cycle are skipped.
func Subordinates(ctx context.Context, dir Directory, managerID StaffID) ([]Employee, error) {
	if _, err := dir.GetEmployee(ctx, managerID); err != nil {
		return nil, fmt.Errorf("subordinates of %d: %w", managerID, err)
	}

	var out []Employee
	visited := map[StaffID]bool{managerID: true}
	queue := []StaffID{managerID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		reports, err := dir.ListReports(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("subordinates of %d: %w", managerID, err)
		}
		for _, e := range reports {
			if visited[e.ID] {
				continue
			}
			visited[e.ID] = true
			out = append(out, e)
			queue = append(queue, e.ID)
		}
	}
	return out, nil
}

// directTeam is managerID's direct reports without the manager itself.
func directTeam(ctx context.Context, dir Directory, managerID StaffID) ([]Employee, error) {
	reports, err := dir.ListReports(ctx, managerID)
	if err != nil {
		return nil, err
	}
	team := reports[:0:0]
	for _, e := range reports {
		if e.ID != managerID {
			team = append(team, e)
		}
	}
	return team, nil
}
