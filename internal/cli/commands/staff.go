package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dairychain-dev/dairychain/internal/cli/client"
	"github.com/dairychain-dev/dairychain/internal/cli/guard"
)

// NewStaffCmd creates the staff command group. Every subcommand is
// restricted to administrators.
func NewStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts (admin only)",
	}

	cmd.AddCommand(newStaffListCmd())
	cmd.AddCommand(newStaffCreateCmd())

	return cmd
}

func newStaffListCmd() *cobra.Command {
	var serverAlias string
	var page, size int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("staff", "ls"), guard.Requirement{AdminOnly: true})
			if err != nil {
				return err
			}

			list, err := apiClient.ListStaff(cmd.Context(), client.ListOptions{Page: page, Size: size})
			if err != nil {
				return err
			}

			if len(list.Items) == 0 {
				fmt.Println("No staff accounts found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tFULL NAME\tROLE\tEMAIL\tACTIVE")
			for _, user := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
					user.Username, user.FullName, user.Role, user.Email, user.IsActive)
			}
			w.Flush()

			fmt.Printf("\nPage %d of %d (%d accounts)\n", list.Page, list.Pages, list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")

	return cmd
}

func newStaffCreateCmd() *cobra.Command {
	var serverAlias string
	var req client.CreateStaffRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("staff", "create"), guard.Requirement{AdminOnly: true})
			if err != nil {
				return err
			}

			user, err := apiClient.CreateStaff(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Staff account created: %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&req.Role, "role", "staff", "Role (admin, staff, field_agent)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")

	return cmd
}
