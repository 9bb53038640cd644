// Package store provides the employee document store used by nodebucket.
// The default implementation is SQLite-backed; task lists are kept as JSON
// arrays inside each employee row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ptran999/nodebucket/internal/models"
	_ "modernc.org/sqlite"
)

// Store provides access to the nodebucket SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		emp_id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		todo TEXT,
		done TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Open pins one pooled connection for the lifetime of the session.
func (s *Store) Open(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &sqliteSession{conn: conn}, nil
}

// UpsertEmployee inserts an employee or updates its names. Task lists are
// only overwritten when provided.
func (s *Store) UpsertEmployee(ctx context.Context, e models.Employee) error {
	todo, err := encodeOptional(e.Todo)
	if err != nil {
		return err
	}
	done, err := encodeOptional(e.Done)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO employees (emp_id, first_name, last_name, todo, done, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(emp_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			todo = COALESCE(excluded.todo, employees.todo),
			done = COALESCE(excluded.done, employees.done),
			updated_at = excluded.updated_at`,
		e.EmployeeID, e.FirstName, e.LastName, todo, done, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) Close() error {
	return s.conn.Close()
}

// FindEmployee retrieves an employee by id. It returns nil, nil when absent.
func (s *sqliteSession) FindEmployee(ctx context.Context, empID int) (*models.Employee, error) {
	e := &models.Employee{}
	var todo, done sql.NullString

	err := s.conn.QueryRowContext(ctx,
		`SELECT emp_id, first_name, last_name, todo, done FROM employees WHERE emp_id = ?`,
		empID,
	).Scan(&e.EmployeeID, &e.FirstName, &e.LastName, &todo, &done)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}

	if e.Todo, err = decodeList(todo); err != nil {
		return nil, fmt.Errorf("decode todo: %w", err)
	}
	if e.Done, err = decodeList(done); err != nil {
		return nil, fmt.Errorf("decode done: %w", err)
	}
	return e, nil
}

// ReplaceTaskLists overwrites both lists with a single UPDATE.
func (s *sqliteSession) ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) (bool, error) {
	todoJSON, err := json.Marshal(models.CloneTasks(todo))
	if err != nil {
		return false, err
	}
	doneJSON, err := json.Marshal(models.CloneTasks(done))
	if err != nil {
		return false, err
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE employees SET todo = ?, done = ?, updated_at = ? WHERE emp_id = ?`,
		string(todoJSON), string(doneJSON), time.Now().UTC(), empID,
	)
	if err != nil {
		return false, fmt.Errorf("replace task lists: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// AppendTodo pushes task onto the end of the todo array in one statement.
func (s *sqliteSession) AppendTodo(ctx context.Context, empID int, task models.Task) (int64, error) {
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return 0, err
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE employees
		 SET todo = json_insert(COALESCE(todo, '[]'), '$[#]', json(?)), updated_at = ?
		 WHERE emp_id = ?`,
		string(taskJSON), time.Now().UTC(), empID,
	)
	if err != nil {
		return 0, fmt.Errorf("append todo: %w", err)
	}
	return result.RowsAffected()
}

func decodeList(raw sql.NullString) ([]models.Task, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw.String), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func encodeOptional(tasks []models.Task) (sql.NullString, error) {
	if tasks == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode tasks: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
