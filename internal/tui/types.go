package tui

import "github.com/ptran999/nodebucket/internal/models"

type mode int

const (
	modeBoard mode = iota
	modeAdd
	modeConfirm
)

type loadedMsg struct{ err error }

type addedMsg struct {
	task models.Task
	err  error
}

type movedMsg struct {
	text string
	to   models.Column
	err  error
}

type deletedMsg struct {
	task models.Task
	err  error
}
