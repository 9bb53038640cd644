package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptran999/nodebucket/internal/board"
	"github.com/ptran999/nodebucket/internal/client"
	"github.com/ptran999/nodebucket/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	RunE:  runBoard,
}

var (
	boardEmp     int
	boardNoStart bool
)

func init() {
	boardCmd.Flags().IntVar(&boardEmp, "emp", 0, "Employee id to sign in as (required)")
	boardCmd.Flags().BoolVar(&boardNoStart, "no-start", false, "Do not start a local server when the API is unreachable")
	boardCmd.MarkFlagRequired("emp")
}

func runBoard(cmd *cobra.Command, args []string) error {
	c := apiClient()

	if !isServerRunning(cmd.Context(), c) {
		if boardNoStart {
			return fmt.Errorf("API not reachable at %s", c.BaseURL())
		}
		fmt.Println("nodebucket server not running. Starting background service...")
		if err := startServer(cmd.Context(), c); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	sess, err := signIn(cmd.Context(), c, strconv.Itoa(boardEmp))
	if err != nil {
		return err
	}

	app := tui.New(board.New(sess, c))
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isServerRunning(ctx context.Context, c *client.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	h, err := c.CheckHealth(ctx)
	return err == nil && h.OK
}

func startServer(ctx context.Context, c *client.Client) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "serve", "--config", configPath)
	configureServerProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for server...")
	for i := 0; i < 20; i++ {
		if isServerRunning(ctx, c) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("server started but API not reachable at %s", c.BaseURL())
}
