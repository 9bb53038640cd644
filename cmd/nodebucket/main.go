package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptran999/nodebucket/internal/client"
	"github.com/ptran999/nodebucket/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "nodebucket",
	Short:         "nodebucket - personal todo/done task board",
	Long:          `nodebucket keeps each employee's todo and done lists and serves them over a REST API with a terminal board on top.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if apiAddr != "" {
			c.API.BaseURL = apiAddr
		}
		cfg = c
		return nil
	},
}

var (
	configPath string
	apiAddr    string

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "API server address (overrides api.base_url)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(seedCmd)
}

func apiClient() *client.Client {
	return client.New(cfg.API.BaseURL, cfg.API.Timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
