// Package taskapi provides the HTTP API and service layer for employee task
// lists.
package taskapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ptran999/nodebucket/internal/audit"
	"github.com/ptran999/nodebucket/internal/models"
	"github.com/ptran999/nodebucket/internal/store"
	"github.com/ptran999/nodebucket/internal/validate"
)

// Service implements the task-list operations on top of a store.Gateway.
// Each operation opens one session and releases it before returning.
type Service struct {
	gw     store.Gateway
	audit  *audit.Recorder
	logger *log.Logger
	newID  func() string
}

// NewService creates a new task service.
func NewService(gw store.Gateway, rec *audit.Recorder, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		gw:     gw,
		audit:  rec,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// CreateTaskResult is returned by CreateTask.
type CreateTaskResult struct {
	ID string `json:"id"`
}

// ParseEmployeeID converts a path segment to an employee id.
func ParseEmployeeID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalidInput(raw)
	}
	return id, nil
}

// GetEmployee returns the full employee record. Missing lists are returned
// as empty arrays.
func (s *Service) GetEmployee(ctx context.Context, rawEmpID string) (*models.Employee, error) {
	empID, err := ParseEmployeeID(rawEmpID)
	if err != nil {
		return nil, err
	}

	sess, err := s.gw.Open(ctx)
	if err != nil {
		return nil, storeFault("open session", err)
	}
	defer sess.Close()

	e, err := s.find(ctx, sess, empID)
	if err != nil {
		return nil, err
	}
	e.Normalize()
	return e, nil
}

// GetTasks returns the {employeeId, todo, done} projection.
func (s *Service) GetTasks(ctx context.Context, rawEmpID string) (*models.TaskLists, error) {
	empID, err := ParseEmployeeID(rawEmpID)
	if err != nil {
		return nil, err
	}

	sess, err := s.gw.Open(ctx)
	if err != nil {
		return nil, storeFault("open session", err)
	}
	defer sess.Close()

	e, err := s.find(ctx, sess, empID)
	if err != nil {
		return nil, err
	}
	lists := e.Lists()
	return &lists, nil
}

// CreateTask appends a new task with a server-generated id to the end of the
// employee's todo list.
func (s *Service) CreateTask(ctx context.Context, rawEmpID string, body []byte) (*CreateTaskResult, error) {
	empID, err := ParseEmployeeID(rawEmpID)
	if err != nil {
		return nil, err
	}

	sess, err := s.gw.Open(ctx)
	if err != nil {
		return nil, storeFault("open session", err)
	}
	defer sess.Close()

	if _, err := s.find(ctx, sess, empID); err != nil {
		return nil, err
	}

	text, err := validate.CreateTaskPayload(body)
	if err != nil {
		return nil, invalidPayload(err)
	}

	task := models.Task{ID: s.newID(), Text: text}
	modified, err := sess.AppendTodo(ctx, empID, task)
	if err != nil {
		return nil, storeFault("append todo", err)
	}
	if modified == 0 {
		return nil, noOp()
	}

	s.audit.Record(audit.ActionCreate, map[string]string{"text": text}, "created", empID)
	return &CreateTaskResult{ID: task.ID}, nil
}

// ReplaceTaskLists overwrites both lists with the payload. Concurrent
// replaces for one employee are last-writer-wins.
func (s *Service) ReplaceTaskLists(ctx context.Context, rawEmpID string, body []byte) error {
	empID, err := ParseEmployeeID(rawEmpID)
	if err != nil {
		return err
	}

	sess, err := s.gw.Open(ctx)
	if err != nil {
		return storeFault("open session", err)
	}
	defer sess.Close()

	if _, err := s.find(ctx, sess, empID); err != nil {
		return err
	}

	todo, done, err := validate.ReplaceListsPayload(body)
	if err != nil {
		return invalidPayload(err)
	}

	matched, err := sess.ReplaceTaskLists(ctx, empID, todo, done)
	if err != nil {
		return storeFault("replace task lists", err)
	}
	if !matched {
		return notFound(empID)
	}

	s.audit.Record(audit.ActionReplace, models.TaskLists{EmployeeID: empID, Todo: todo, Done: done}, "replaced", empID)
	return nil
}

// DeleteTask removes taskID from both lists. Deleting an unknown task id
// succeeds without changing anything visible.
func (s *Service) DeleteTask(ctx context.Context, rawEmpID, taskID string) error {
	empID, err := ParseEmployeeID(rawEmpID)
	if err != nil {
		return err
	}

	sess, err := s.gw.Open(ctx)
	if err != nil {
		return storeFault("open session", err)
	}
	defer sess.Close()

	e, err := s.find(ctx, sess, empID)
	if err != nil {
		return err
	}

	todo := models.RemoveTask(e.Todo, taskID)
	done := models.RemoveTask(e.Done, taskID)

	matched, err := sess.ReplaceTaskLists(ctx, empID, todo, done)
	if err != nil {
		return storeFault("replace task lists", err)
	}
	if !matched {
		return notFound(empID)
	}

	outcome := "deleted"
	if len(todo) == len(e.Todo) && len(done) == len(e.Done) {
		outcome = "absent"
	}
	s.audit.Record(audit.ActionDelete, map[string]string{"taskId": taskID}, outcome, empID)
	return nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.gw.Ping(ctx)
}

func (s *Service) find(ctx context.Context, sess store.Session, empID int) (*models.Employee, error) {
	e, err := sess.FindEmployee(ctx, empID)
	if err != nil {
		return nil, storeFault("find employee", err)
	}
	if e == nil {
		return nil, notFound(empID)
	}
	return e, nil
}
