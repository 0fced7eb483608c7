package commands

import (
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")

	return cmd
}

func runLogout(cmd *cobra.Command, serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	_, manager := newSession(server)
	manager.Hydrate(cmd.Context())

	// Logout never fails: the server call is best effort, local state is
	// always torn down. Running it while already logged out is a no-op.
	manager.Logout(cmd.Context())
	return nil
}
