// Package models defines the core domain types for nodebucket.
package models

import (
	"fmt"
	"strings"
)

// Column identifies one of the two task lists on an employee's board.
type Column string

const (
	ColumnTodo Column = "todo"
	ColumnDone Column = "done"
)

// Other returns the opposite column.
func (c Column) Other() Column {
	if c == ColumnTodo {
		return ColumnDone
	}
	return ColumnTodo
}

// Task is a unit of work. Text is immutable once the task is created.
type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Employee is the task-owning record keyed by EmployeeID.
type Employee struct {
	EmployeeID int    `json:"employeeId"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Todo       []Task `json:"todo"`
	Done       []Task `json:"done"`
}

// TaskLists is the {employeeId, todo, done} projection returned by task reads.
type TaskLists struct {
	EmployeeID int    `json:"employeeId"`
	Todo       []Task `json:"todo"`
	Done       []Task `json:"done"`
}

// FullName joins first and last name.
func (e *Employee) FullName() string {
	switch {
	case e.FirstName == "" && e.LastName == "":
		return fmt.Sprintf("Employee %d", e.EmployeeID)
	case e.LastName == "":
		return e.FirstName
	case e.FirstName == "":
		return e.LastName
	}
	return e.FirstName + " " + e.LastName
}

// Normalize replaces missing lists with empty ones so responses never carry null.
func (e *Employee) Normalize() {
	if e.Todo == nil {
		e.Todo = []Task{}
	}
	if e.Done == nil {
		e.Done = []Task{}
	}
}

// Lists returns the task-list projection of the employee.
func (e *Employee) Lists() TaskLists {
	e.Normalize()
	return TaskLists{EmployeeID: e.EmployeeID, Todo: e.Todo, Done: e.Done}
}

// TaskIDsUnique reports whether no task id occurs twice across todo and done.
func (e *Employee) TaskIDsUnique() bool {
	return UniqueIDs(e.Todo, e.Done)
}

// UniqueIDs reports whether the given lists share no task id.
func UniqueIDs(lists ...[]Task) bool {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t.ID]; ok {
				return false
			}
			seen[t.ID] = struct{}{}
		}
	}
	return true
}

// RemoveTask returns a copy of list without any task whose id matches id.
// Ids are compared after trimming surrounding whitespace. The result is never nil.
func RemoveTask(list []Task, id string) []Task {
	id = strings.TrimSpace(id)
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if strings.TrimSpace(t.ID) == id {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CloneTasks copies a task slice. The result is never nil.
func CloneTasks(list []Task) []Task {
	out := make([]Task, len(list))
	copy(out, list)
	return out
}
