package store

import (
	"context"

	"github.com/ptran999/nodebucket/internal/models"
)

// Gateway hands out sessions against the employee document store.
type Gateway interface {
	// Open acquires a session. Callers must Close it on every path.
	Open(ctx context.Context) (Session, error)
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connection pool.
	Close() error
}

// Session reads and rewrites the task lists of single employee records.
// A missing record is a normal outcome, not an error: FindEmployee returns
// nil, ReplaceTaskLists returns false and AppendTodo returns 0.
type Session interface {
	FindEmployee(ctx context.Context, empID int) (*models.Employee, error)
	// ReplaceTaskLists overwrites both lists in one write.
	ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) (bool, error)
	// AppendTodo appends task to the end of todo and reports how many
	// records were modified.
	AppendTodo(ctx context.Context, empID int, task models.Task) (int64, error)
	Close() error
}

// Provisioner creates or updates employee records. It is used by the seed
// tooling only; the task service never creates employees.
type Provisioner interface {
	UpsertEmployee(ctx context.Context, e models.Employee) error
}

var (
	_ Gateway     = (*Store)(nil)
	_ Provisioner = (*Store)(nil)
)
