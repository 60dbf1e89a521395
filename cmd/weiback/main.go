// Command weiback is WeiBack's command-line front end: one subcommand
// per core.Core operation, grounded on the teacher's cmd/cli layout
// (one cobra.Command per concern, a shared rootCmd, package-level
// flags wired in init()).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/weiback-dev/weiback/internal/config"
	"github.com/weiback-dev/weiback/internal/core"
)

var (
	configPath string
	theCore    *core.Core
	logger     = log.New(os.Stderr, "", log.LstdFlags)
)

var rootCmd = &cobra.Command{
	Use:   "weiback",
	Short: "Personal archival tool for a favorited-posts backup",
	Long: `weiback backs up favorited and timeline posts, their media, and
exports them to self-contained HTML bundles for long-term keeping.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "weiback" {
			return nil
		}
		return initCore()
	},
}

func initCore() error {
	if theCore != nil {
		return nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("init remote client: %w", err)
	}
	authProvider, err := newAuthProvider(cfg)
	if err != nil {
		return fmt.Errorf("init auth provider: %w", err)
	}
	c, err := core.New(&cfg, client, authProvider, logger)
	if err != nil {
		return fmt.Errorf("init core: %w", err)
	}
	theCore = c
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config.toml")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
