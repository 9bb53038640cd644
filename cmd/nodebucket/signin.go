package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ptran999/nodebucket/internal/board"
	"github.com/ptran999/nodebucket/internal/client"
)

var signinCmd = &cobra.Command{
	Use:   "signin [empId]",
	Short: "Check an employee id and print who it belongs to",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignin,
}

func runSignin(cmd *cobra.Command, args []string) error {
	sess, err := signIn(cmd.Context(), apiClient(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (#%d)\n", sess.Name, sess.EmployeeID)
	return nil
}

// signIn resolves raw to an employee and returns the session the board and
// task commands operate on.
func signIn(ctx context.Context, c *client.Client, raw string) (board.Session, error) {
	empID, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return board.Session{}, fmt.Errorf("employee id must be a number: %s", raw)
	}

	e, err := c.GetEmployee(ctx, empID)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return board.Session{}, errors.New(apiErr.Message)
		}
		return board.Session{}, err
	}

	return board.Session{EmployeeID: empID, Name: e.FullName()}, nil
}
