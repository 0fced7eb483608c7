package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dairychain-dev/dairychain/internal/cli/guard"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")

	return cmd
}

func runWhoami(cmd *cobra.Command, serverAlias string) error {
	_, manager, err := requireAccess(cmd.Context(), serverAlias, "whoami", guard.Requirement{})
	if err != nil {
		return err
	}

	// Re-fetch so the output reflects the server, not the hydration cache
	manager.RefreshUser(cmd.Context())
	current := manager.Current()
	if !current.IsAuthenticated() {
		return fmt.Errorf("session expired, please run 'dairychain login'")
	}

	user := current.User
	fmt.Printf("Username:  %s\n", user.Username)
	fmt.Printf("Full name: %s\n", user.FullName)
	fmt.Printf("Email:     %s\n", user.Email)
	fmt.Printf("Role:      %s\n", user.Role)
	if user.IsAdmin {
		fmt.Println("Admin:     yes")
	}
	return nil
}
