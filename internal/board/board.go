// Package board keeps a local replica of one employee's todo and done lists
// and synchronizes user actions with the task API.
//
// Creates and deletes wait for the server before touching local state. Moves
// are applied locally first and reverted if the server rejects them. Every
// server write is serialized, and each replace sends the lists as they are
// when it is sent, so a later replace always carries earlier staged moves.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ptran999/nodebucket/internal/models"
)

var (
	// ErrBlankText is returned by Add for empty or whitespace-only text.
	ErrBlankText = errors.New("task text must not be empty")
	// ErrCancelled is returned by Delete when the user declines.
	ErrCancelled = errors.New("cancelled")
	// ErrOutOfRange is returned for a move from a position that does not exist.
	ErrOutOfRange = errors.New("task position out of range")
	// ErrDiscarded is returned by Commit for a move dropped when the lists
	// were reloaded after an earlier failed replace.
	ErrDiscarded = errors.New("move discarded after a failed sync")
)

// Session identifies the signed-in employee. It is passed explicitly instead
// of being read from ambient state.
type Session struct {
	EmployeeID int
	Name       string
}

// API is the subset of the task API the board needs.
type API interface {
	GetTasks(ctx context.Context, empID int) (*models.TaskLists, error)
	CreateTask(ctx context.Context, empID int, text string) (string, error)
	ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) error
	DeleteTask(ctx context.Context, empID int, taskID string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed is a Confirmer for callers that already asked the user.
var Confirmed Confirmer = ConfirmFunc(func(string) bool { return true })

// Synchronizer owns the local todo and done lists for one session.
type Synchronizer struct {
	session Session
	api     API

	// writeMu serializes calls that change server state, and Load.
	writeMu sync.Mutex

	mu      sync.Mutex
	todo    []models.Task
	done    []models.Task
	lastErr error

	// gen counts local changes. sent is the newest gen the server holds and
	// dropped the newest gen thrown away by a reload.
	gen, sent, dropped int64
}

// New creates a synchronizer with empty lists. Call Load to hydrate it.
func New(session Session, api API) *Synchronizer {
	return &Synchronizer{
		session: session,
		api:     api,
		todo:    []models.Task{},
		done:    []models.Task{},
	}
}

// Session returns the session the board was created for.
func (s *Synchronizer) Session() Session { return s.session }

// Todo returns a copy of the local todo list.
func (s *Synchronizer) Todo() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneTasks(s.todo)
}

// Done returns a copy of the local done list.
func (s *Synchronizer) Done() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneTasks(s.done)
}

// List returns a copy of the given column.
func (s *Synchronizer) List(col models.Column) []models.Task {
	if col == models.ColumnDone {
		return s.Done()
	}
	return s.Todo()
}

// LastError returns the failure of the most recent operation, or nil.
func (s *Synchronizer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Load replaces the local lists with the server's. Moves staged but not yet
// committed are dropped.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.reload(ctx); err != nil {
		return s.setErr(fmt.Errorf("load tasks: %w", err))
	}
	return s.setErr(nil)
}

// reload fetches the server lists. The caller holds writeMu.
func (s *Synchronizer) reload(ctx context.Context) error {
	lists, err := s.api.GetTasks(ctx, s.session.EmployeeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todo = models.CloneTasks(lists.Todo)
	s.done = models.CloneTasks(lists.Done)
	s.dropped = s.gen
	s.gen++
	s.sent = s.gen
	return nil
}

// confirmed records a local change the server already holds. The caller
// holds mu.
func (s *Synchronizer) confirmed() {
	clean := s.sent == s.gen
	s.gen++
	if clean {
		s.sent = s.gen
	}
}

// Add creates a task on the server and appends it to the local todo list.
func (s *Synchronizer) Add(ctx context.Context, text string) (models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.setErr(ErrBlankText)
		return models.Task{}, ErrBlankText
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id, err := s.api.CreateTask(ctx, s.session.EmployeeID, text)
	if err != nil {
		return models.Task{}, s.setErr(fmt.Errorf("create task: %w", err))
	}

	task := models.Task{ID: id, Text: text}
	s.mu.Lock()
	s.todo = append(s.todo, task)
	s.confirmed()
	s.lastErr = nil
	s.mu.Unlock()
	return task, nil
}

// Move moves the task at fromIdx in from to toIdx in to, then pushes both
// lists to the server. It covers reordering within a column and transfers
// between columns. On failure the local lists are restored or reloaded, as
// described on Commit.
func (s *Synchronizer) Move(ctx context.Context, from models.Column, fromIdx int, to models.Column, toIdx int) error {
	p, err := s.StageMove(from, fromIdx, to, toIdx)
	if err != nil {
		return err
	}
	return p.Commit(ctx)
}

// PendingMove is a move applied locally but not yet pushed to the server.
type PendingMove struct {
	s          *Synchronizer
	beforeTodo []models.Task
	beforeDone []models.Task
	gen        int64
	clean      bool // nothing was unsent when the move was staged
	changed    bool
}

// StageMove applies a move to the local lists only. toIdx is clamped to the
// destination bounds.
func (s *Synchronizer) StageMove(from models.Column, fromIdx int, to models.Column, toIdx int) (*PendingMove, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.list(from)
	if fromIdx < 0 || fromIdx >= len(*src) {
		s.lastErr = ErrOutOfRange
		return nil, ErrOutOfRange
	}

	p := &PendingMove{
		s:          s,
		beforeTodo: models.CloneTasks(s.todo),
		beforeDone: models.CloneTasks(s.done),
	}

	task := (*src)[fromIdx]
	*src = append((*src)[:fromIdx:fromIdx], (*src)[fromIdx+1:]...)

	dst := s.list(to)
	if toIdx < 0 {
		toIdx = 0
	}
	if toIdx > len(*dst) {
		toIdx = len(*dst)
	}
	*dst = insertAt(*dst, toIdx, task)

	p.changed = from != to || fromIdx != toIdx
	if p.changed {
		p.clean = s.sent == s.gen
		s.gen++
		p.gen = s.gen
	}
	return p, nil
}

// Commit pushes the current local lists to the server. A move that changed
// nothing, or whose lists a later commit already sent, is not sent again.
//
// On failure the pre-move snapshot is restored only when no other local
// change happened around this move; otherwise the lists are reloaded from
// the server and moves still pending are dropped.
func (p *PendingMove) Commit(ctx context.Context) error {
	s := p.s
	if !p.changed {
		s.setErr(nil)
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	switch {
	case p.gen <= s.dropped:
		s.mu.Unlock()
		return s.setErr(fmt.Errorf("move task: %w", ErrDiscarded))
	case p.gen <= s.sent:
		s.lastErr = nil
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	todo, done := models.CloneTasks(s.todo), models.CloneTasks(s.done)
	s.mu.Unlock()

	err := s.api.ReplaceTaskLists(ctx, s.session.EmployeeID, todo, done)

	s.mu.Lock()
	if err == nil {
		s.sent = gen
		s.lastErr = nil
		s.mu.Unlock()
		return nil
	}
	moveErr := fmt.Errorf("move task: %w", err)
	if p.clean && s.gen == p.gen {
		s.todo = p.beforeTodo
		s.done = p.beforeDone
		s.dropped = s.gen
		s.gen++
		s.sent = s.gen
		s.lastErr = moveErr
		s.mu.Unlock()
		return moveErr
	}
	s.mu.Unlock()

	if rerr := s.reload(ctx); rerr != nil {
		moveErr = fmt.Errorf("%w (reload failed: %v)", moveErr, rerr)
	}
	return s.setErr(moveErr)
}

// Delete asks confirm before deleting taskID on the server, then removes it
// from both local lists. It returns ErrCancelled when the user declines.
func (s *Synchronizer) Delete(ctx context.Context, taskID string, confirm Confirmer) error {
	prompt := "Are you sure you want to delete this task?"
	if t, ok := s.task(taskID); ok {
		prompt = fmt.Sprintf("Delete %q?", t.Text)
	}
	if confirm == nil || !confirm.Confirm(prompt) {
		return ErrCancelled
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.api.DeleteTask(ctx, s.session.EmployeeID, taskID); err != nil {
		return s.setErr(fmt.Errorf("delete task: %w", err))
	}

	s.mu.Lock()
	s.todo = models.RemoveTask(s.todo, taskID)
	s.done = models.RemoveTask(s.done, taskID)
	s.confirmed()
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Find returns the column and position of taskID.
func (s *Synchronizer) Find(taskID string) (models.Column, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, col := range []models.Column{models.ColumnTodo, models.ColumnDone} {
		for i, t := range *s.list(col) {
			if t.ID == taskID {
				return col, i, true
			}
		}
	}
	return "", -1, false
}

func (s *Synchronizer) task(taskID string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range [][]models.Task{s.todo, s.done} {
		for _, t := range list {
			if t.ID == taskID {
				return t, true
			}
		}
	}
	return models.Task{}, false
}

func (s *Synchronizer) list(col models.Column) *[]models.Task {
	if col == models.ColumnDone {
		return &s.done
	}
	return &s.todo
}

func (s *Synchronizer) setErr(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func insertAt(list []models.Task, idx int, t models.Task) []models.Task {
	list = append(list, models.Task{})
	copy(list[idx+1:], list[idx:])
	list[idx] = t
	return list
}
