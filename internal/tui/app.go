// Package tui provides the interactive two-column task board.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ptran999/nodebucket/internal/board"
	"github.com/ptran999/nodebucket/internal/models"
)

// requestTimeout bounds each API call made from the board.
const requestTimeout = 15 * time.Second

// App is the board application model.
type App struct {
	board   *board.Synchronizer
	col     models.Column
	cursor  map[models.Column]int
	input   textinput.Model
	mode    mode
	pending models.Task
	message string
	isError bool
	loading bool
	width   int
	height  int
}

// New creates a board for an already signed-in session.
func New(sync *board.Synchronizer) *App {
	ti := textinput.New()
	ti.Placeholder = "New task"
	ti.CharLimit = 256
	ti.Width = 60

	return &App{
		board:  sync,
		col:    models.ColumnTodo,
		cursor: map[models.Column]int{models.ColumnTodo: 0, models.ColumnDone: 0},
		input:  ti,
		mode:   modeBoard,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.load()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(20, msg.Width-8)
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case modeAdd:
			return a.updateAdd(msg)
		case modeConfirm:
			return a.updateConfirm(msg)
		default:
			return a.updateBoard(msg)
		}

	case loadedMsg:
		a.loading = false
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setInfo("Tasks loaded")
		}
		a.clampCursors()

	case addedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.setInfo(fmt.Sprintf("Added %q", msg.task.Text))

	case movedMsg:
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setInfo(fmt.Sprintf("Moved %q to %s", msg.text, columnTitle(msg.to)))
		}
		a.clampCursors()

	case deletedMsg:
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setInfo(fmt.Sprintf("Deleted %q", msg.task.Text))
		}
		a.clampCursors()
	}

	return a, nil
}

func (a *App) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit

	case "left", "h":
		a.col = models.ColumnTodo
	case "right", "l":
		a.col = models.ColumnDone

	case "up", "k":
		if a.cursor[a.col] > 0 {
			a.cursor[a.col]--
		}
	case "down", "j":
		if a.cursor[a.col] < len(a.board.List(a.col))-1 {
			a.cursor[a.col]++
		}

	case "K":
		cur := a.cursor[a.col]
		if cur > 0 {
			if cmd := a.move(a.col, cur, a.col, cur-1); cmd != nil {
				a.cursor[a.col] = cur - 1
				return a, cmd
			}
		}
	case "J":
		cur := a.cursor[a.col]
		if cur < len(a.board.List(a.col))-1 {
			if cmd := a.move(a.col, cur, a.col, cur+1); cmd != nil {
				a.cursor[a.col] = cur + 1
				return a, cmd
			}
		}

	case "m", " ":
		to := a.col.Other()
		return a, a.move(a.col, a.cursor[a.col], to, len(a.board.List(to)))

	case "a":
		a.mode = modeAdd
		a.input.SetValue("")
		a.input.Focus()
		return a, textinput.Blink

	case "d":
		if t, ok := a.selected(); ok {
			a.pending = t
			a.mode = modeConfirm
			a.setInfo(fmt.Sprintf("Delete %q? (y/n)", t.Text))
		}

	case "r":
		return a, a.load()
	}
	return a, nil
}

func (a *App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.mode = modeBoard
		a.input.Blur()
		return a, nil
	case "enter":
		text := strings.TrimSpace(a.input.Value())
		if text == "" {
			a.setError(board.ErrBlankText)
			return a, nil
		}
		a.mode = modeBoard
		a.input.Blur()
		a.input.SetValue("")
		return a, a.add(text)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "y", "Y":
		a.mode = modeBoard
		return a, a.remove(a.pending)
	case "n", "N", "esc":
		a.mode = modeBoard
		a.setInfo("Delete cancelled")
	}
	return a, nil
}

func (a *App) selected() (models.Task, bool) {
	list := a.board.List(a.col)
	cur := a.cursor[a.col]
	if cur < 0 || cur >= len(list) {
		return models.Task{}, false
	}
	return list[cur], true
}

func (a *App) clampCursors() {
	for _, col := range []models.Column{models.ColumnTodo, models.ColumnDone} {
		n := len(a.board.List(col))
		if a.cursor[col] >= n {
			a.cursor[col] = max(0, n-1)
		}
	}
}

func (a *App) setError(err error) {
	a.message = "Error: " + err.Error()
	a.isError = true
}

func (a *App) setInfo(msg string) {
	a.message = msg
	a.isError = false
}

func (a *App) load() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return loadedMsg{err: a.board.Load(ctx)}
	}
}

func (a *App) add(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := a.board.Add(ctx, text)
		return addedMsg{task: task, err: err}
	}
}

// move applies the move locally right away and returns the command that
// pushes it to the server.
func (a *App) move(from models.Column, fromIdx int, to models.Column, toIdx int) tea.Cmd {
	list := a.board.List(from)
	if fromIdx < 0 || fromIdx >= len(list) {
		return nil
	}
	text := list[fromIdx].Text

	p, err := a.board.StageMove(from, fromIdx, to, toIdx)
	if err != nil {
		a.setError(err)
		return nil
	}
	a.clampCursors()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return movedMsg{text: text, to: to, err: p.Commit(ctx)}
	}
}

func (a *App) remove(t models.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return deletedMsg{task: t, err: a.board.Delete(ctx, t.ID, board.Confirmed)}
	}
}
