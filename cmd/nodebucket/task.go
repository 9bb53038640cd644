package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ptran999/nodebucket/internal/board"
	"github.com/ptran999/nodebucket/internal/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage an employee's tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todo and done tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a task to the todo list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id]",
	Short: "Move a task to another column or position",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskMove,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var (
	taskEmp int
	moveTo  string
	movePos int
	rmYes   bool
)

func init() {
	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskMoveCmd, taskRmCmd)

	taskCmd.PersistentFlags().IntVar(&taskEmp, "emp", 0, "Employee id (required)")
	taskCmd.MarkPersistentFlagRequired("emp")

	taskMoveCmd.Flags().StringVar(&moveTo, "to", "", "Destination column (todo, done); defaults to the current one")
	taskMoveCmd.Flags().IntVar(&movePos, "pos", -1, "Destination position, 0 is the top; defaults to the end")

	taskRmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Delete without asking")
}

// loadBoard signs in as the --emp employee and hydrates a synchronizer.
func loadBoard(ctx context.Context) (*board.Synchronizer, error) {
	c := apiClient()
	sess, err := signIn(ctx, c, fmt.Sprint(taskEmp))
	if err != nil {
		return nil, err
	}
	b := board.New(sess, c)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(cmd.Context())
	if err != nil {
		return err
	}
	printLists(os.Stdout, b.Todo(), b.Done())
	return nil
}

func printLists(out io.Writer, todo, done []models.Task) {
	if len(todo)+len(done) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOLUMN\tPOS\tTEXT")
	for _, col := range []struct {
		name  models.Column
		tasks []models.Task
	}{{models.ColumnTodo, todo}, {models.ColumnDone, done}} {
		for i, t := range col.tasks {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", truncateID(t.ID), col.name, i, truncate(t.Text, 60))
		}
	}
	w.Flush()
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(cmd.Context())
	if err != nil {
		return err
	}
	t, err := b.Add(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Printf("Created task: %s\n", t.ID)
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(cmd.Context())
	if err != nil {
		return err
	}
	from, idx, err := resolveTask(b, args[0])
	if err != nil {
		return err
	}

	to := from
	if moveTo != "" {
		to, err = parseColumn(moveTo)
		if err != nil {
			return err
		}
	}
	pos := movePos
	if pos < 0 {
		pos = len(b.List(to))
		if to == from {
			pos--
		}
	}

	if err := b.Move(cmd.Context(), from, idx, to, pos); err != nil {
		return err
	}
	fmt.Printf("Moved task %s to %s\n", args[0], to)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(cmd.Context())
	if err != nil {
		return err
	}
	col, idx, err := resolveTask(b, args[0])
	if err != nil {
		return err
	}
	id := b.List(col)[idx].ID

	var confirm board.Confirmer = board.Confirmed
	if !rmYes {
		confirm = promptConfirmer(os.Stdin, os.Stdout)
	}
	if err := b.Delete(cmd.Context(), id, confirm); err != nil {
		if errors.Is(err, board.ErrCancelled) {
			fmt.Println("Cancelled")
			return nil
		}
		return err
	}
	fmt.Printf("Deleted task %s\n", id)
	return nil
}

// resolveTask finds a task by full id or by an unambiguous id prefix as
// printed by "task list".
func resolveTask(b *board.Synchronizer, ref string) (models.Column, int, error) {
	if col, idx, ok := b.Find(ref); ok {
		return col, idx, nil
	}

	var (
		matchCol models.Column
		matchIdx = -1
	)
	for _, col := range []models.Column{models.ColumnTodo, models.ColumnDone} {
		for i, t := range b.List(col) {
			if !strings.HasPrefix(t.ID, ref) {
				continue
			}
			if matchIdx >= 0 {
				return "", -1, fmt.Errorf("task id %q is ambiguous", ref)
			}
			matchCol, matchIdx = col, i
		}
	}
	if matchIdx < 0 {
		return "", -1, fmt.Errorf("no task with id %q", ref)
	}
	return matchCol, matchIdx, nil
}

func parseColumn(s string) (models.Column, error) {
	switch models.Column(strings.ToLower(strings.TrimSpace(s))) {
	case models.ColumnTodo:
		return models.ColumnTodo, nil
	case models.ColumnDone:
		return models.ColumnDone, nil
	}
	return "", fmt.Errorf("invalid column %q, must be: todo or done", s)
}

// promptConfirmer asks on out and reads a y/N answer from in.
func promptConfirmer(in io.Reader, out io.Writer) board.Confirmer {
	r := bufio.NewReader(in)
	return board.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// --- Helpers ---

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func truncateID(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[:8])
}
