package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ptran999/nodebucket/internal/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Provision employee records in the configured store",
	Long: `Writes the employees listed in a YAML file straight to the configured store.
Existing employees keep their task lists unless the file provides them.

  employees:
    - empId: 1007
      firstName: Ada
      lastName: Lovelace
      todo:
        - text: Write report`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

// SeedFile is the provisioning document read by the seed command.
type SeedFile struct {
	Employees []SeedEmployee `yaml:"employees"`
}

type SeedEmployee struct {
	EmployeeID int        `yaml:"empId"`
	FirstName  string     `yaml:"firstName"`
	LastName   string     `yaml:"lastName"`
	Todo       []SeedTask `yaml:"todo"`
	Done       []SeedTask `yaml:"done"`
}

type SeedTask struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// parseSeed decodes a seed document into employee records. Tasks without an
// id get a generated one.
func parseSeed(data []byte, newID func() string) ([]models.Employee, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[int]bool, len(f.Employees))
	out := make([]models.Employee, 0, len(f.Employees))
	for i, se := range f.Employees {
		if se.EmployeeID <= 0 {
			return nil, fmt.Errorf("employees[%d]: empId must be a positive number", i)
		}
		if seen[se.EmployeeID] {
			return nil, fmt.Errorf("employees[%d]: duplicate empId %d", i, se.EmployeeID)
		}
		seen[se.EmployeeID] = true

		e := models.Employee{
			EmployeeID: se.EmployeeID,
			FirstName:  se.FirstName,
			LastName:   se.LastName,
		}
		var err error
		if e.Todo, err = seedTasks(se.Todo, newID, i, "todo"); err != nil {
			return nil, err
		}
		if e.Done, err = seedTasks(se.Done, newID, i, "done"); err != nil {
			return nil, err
		}
		if !e.TaskIDsUnique() {
			return nil, fmt.Errorf("employees[%d]: task ids must be unique across todo and done", i)
		}
		out = append(out, e)
	}
	return out, nil
}

// seedTasks returns nil for an absent list so existing lists are kept.
func seedTasks(in []SeedTask, newID func() string, emp int, col string) ([]models.Task, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]models.Task, 0, len(in))
	for j, st := range in {
		text := strings.TrimSpace(st.Text)
		if text == "" {
			return nil, fmt.Errorf("employees[%d].%s[%d]: text must not be empty", emp, col, j)
		}
		id := st.ID
		if id == "" {
			id = newID()
		}
		out = append(out, models.Task{ID: id, Text: text})
	}
	return out, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	employees, err := parseSeed(data, uuid.NewString)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger()
	gw, cleanup, err := openGateway(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, e := range employees {
		if err := gw.UpsertEmployee(cmd.Context(), e); err != nil {
			return fmt.Errorf("seed employee %d: %w", e.EmployeeID, err)
		}
		fmt.Printf("Seeded employee %d (%s)\n", e.EmployeeID, e.FullName())
	}
	return nil
}
