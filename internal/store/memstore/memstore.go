// Package memstore is an in-memory store.Gateway. It backs the "memory"
// store driver and the service tests.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/ptran999/nodebucket/internal/models"
	"github.com/ptran999/nodebucket/internal/store"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memstore: closed")

// Store keeps employee records in a map guarded by a mutex.
type Store struct {
	mu        sync.Mutex
	employees map[int]models.Employee
	closed    bool
	open      int
}

// New returns an empty store.
func New() *Store {
	return &Store{employees: make(map[int]models.Employee)}
}

func (s *Store) Open(ctx context.Context) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.open++
	return &session{s: s}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// OpenSessions reports sessions that were opened and not yet closed.
func (s *Store) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// UpsertEmployee creates the employee or updates its names. Lists are kept
// unless provided.
func (s *Store) UpsertEmployee(ctx context.Context, e models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cur, ok := s.employees[e.EmployeeID]
	if !ok {
		cur = models.Employee{EmployeeID: e.EmployeeID}
	}
	cur.FirstName = e.FirstName
	cur.LastName = e.LastName
	if e.Todo != nil {
		cur.Todo = models.CloneTasks(e.Todo)
	}
	if e.Done != nil {
		cur.Done = models.CloneTasks(e.Done)
	}
	s.employees[e.EmployeeID] = cur
	return nil
}

type session struct {
	s      *Store
	closed bool
}

func (sess *session) Close() error {
	sess.s.mu.Lock()
	defer sess.s.mu.Unlock()
	if !sess.closed {
		sess.closed = true
		sess.s.open--
	}
	return nil
}

func (sess *session) FindEmployee(ctx context.Context, empID int) (*models.Employee, error) {
	s := sess.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	e, ok := s.employees[empID]
	if !ok {
		return nil, nil
	}
	out := e
	if e.Todo != nil {
		out.Todo = models.CloneTasks(e.Todo)
	}
	if e.Done != nil {
		out.Done = models.CloneTasks(e.Done)
	}
	return &out, nil
}

func (sess *session) ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) (bool, error) {
	s := sess.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	e, ok := s.employees[empID]
	if !ok {
		return false, nil
	}
	e.Todo = models.CloneTasks(todo)
	e.Done = models.CloneTasks(done)
	s.employees[empID] = e
	return true, nil
}

func (sess *session) AppendTodo(ctx context.Context, empID int, task models.Task) (int64, error) {
	s := sess.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	e, ok := s.employees[empID]
	if !ok {
		return 0, nil
	}
	e.Todo = append(models.CloneTasks(e.Todo), task)
	s.employees[empID] = e
	return 1, nil
}

var (
	_ store.Gateway     = (*Store)(nil)
	_ store.Provisioner = (*Store)(nil)
)
