package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/allinone/wfh-engine/wfh"
)

// SeedEmployee is one directory record in the seed file. Keys match the
// employee columns.
type SeedEmployee struct {
	StaffID          int64  `yaml:"staff_id"`
	FirstName        string `yaml:"staff_fname"`
	LastName         string `yaml:"staff_lname"`
	Department       string `yaml:"dept"`
	Position         string `yaml:"position"`
	Country          string `yaml:"country"`
	Email            string `yaml:"email"`
	ReportingManager *int64 `yaml:"reporting_manager,omitempty"`
	Role             int    `yaml:"role"`
}

type seedFile struct {
	Employees []SeedEmployee `yaml:"employees"`
}

// LoadSeed reads a YAML employee list. Every record needs a staff_id and
// ids must be unique; reporting_manager may point at any id in the file
// (or at the employee itself for the organisational root).
func LoadSeed(path string) ([]wfh.Employee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed is LoadSeed over bytes.
func ParseSeed(data []byte) ([]wfh.Employee, error) {
	var parsed seedFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}

	seen := make(map[int64]bool, len(parsed.Employees))
	out := make([]wfh.Employee, 0, len(parsed.Employees))
	for i, s := range parsed.Employees {
		if s.StaffID <= 0 {
			return nil, fmt.Errorf("seed: employee #%d has no staff_id", i+1)
		}
		if seen[s.StaffID] {
			return nil, fmt.Errorf("seed: duplicate staff_id %d", s.StaffID)
		}
		seen[s.StaffID] = true

		e := wfh.Employee{
			ID:         wfh.StaffID(s.StaffID),
			FirstName:  s.FirstName,
			LastName:   s.LastName,
			Department: s.Department,
			Position:   s.Position,
			Country:    s.Country,
			Email:      s.Email,
			Role:       wfh.RoleTier(s.Role),
		}
		if s.ReportingManager != nil {
			mgr := wfh.StaffID(*s.ReportingManager)
			e.ManagerID = &mgr
		}
		out = append(out, e)
	}

	for _, e := range out {
		if e.ManagerID != nil && !seen[int64(*e.ManagerID)] {
			return nil, fmt.Errorf("seed: staff %d reports to unknown staff %d", e.ID, *e.ManagerID)
		}
	}
	return out, nil
}
