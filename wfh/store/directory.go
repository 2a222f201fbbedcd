package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// MEMORY DIRECTORY
// =============================================================================

// Directory is an in-memory employee directory. It has its own lock so
// lookups never contend with a TxMemory unit of work.
type Directory struct {
	mu        sync.RWMutex
	employees map[wfh.StaffID]wfh.Employee
}

func NewDirectory(employees ...wfh.Employee) *Directory {
	d := &Directory{employees: make(map[wfh.StaffID]wfh.Employee)}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// SaveEmployee inserts or replaces an employee.
func (d *Directory) SaveEmployee(_ context.Context, e wfh.Employee) error {
	if e.ID == 0 {
		return &wfh.ValidationError{Field: "staff_id", Message: "staff_id is required"}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[e.ID] = e
	return nil
}

func (d *Directory) GetEmployee(_ context.Context, id wfh.StaffID) (*wfh.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	if !ok {
		return nil, fmt.Errorf("staff %d: %w", id, wfh.ErrEmployeeNotFound)
	}
	return &e, nil
}

func (d *Directory) GetReportingManager(ctx context.Context, id wfh.StaffID) (*wfh.Employee, error) {
	e, err := d.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.ManagerID == nil {
		return nil, nil
	}
	mgr, err := d.GetEmployee(ctx, *e.ManagerID)
	if err != nil {
		return nil, fmt.Errorf("manager of staff %d: %w", id, err)
	}
	return mgr, nil
}

func (d *Directory) ListReports(_ context.Context, managerID wfh.StaffID) ([]wfh.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var reports []wfh.Employee
	for _, e := range d.employees {
		if e.ManagerID != nil && *e.ManagerID == managerID {
			reports = append(reports, e)
		}
	}
	sortByID(reports)
	return reports, nil
}

// ListEmployees returns every employee ordered by staff id.
func (d *Directory) ListEmployees(_ context.Context) ([]wfh.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	all := make([]wfh.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		all = append(all, e)
	}
	sortByID(all)
	return all, nil
}

func sortByID(es []wfh.Employee) {
	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })
}

var _ wfh.Directory = (*Directory)(nil)
