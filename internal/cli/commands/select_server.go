package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dairychain-dev/dairychain/internal/cli/config"
	"github.com/dairychain-dev/dairychain/internal/cli/serverselect"
	"github.com/dairychain-dev/dairychain/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Choose which configured server to use",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSelectServer,
	}
}

func runSelectServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'dairychain init' to create a configuration file", err)
	}

	var server *config.Server
	if len(args) == 1 {
		server, err = serverselect.GetServerByURLOrAlias(cfg, args[0])
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Printf("✓ Selected server %s (%s)\n", server.Alias, server.URL)
	return nil
}
