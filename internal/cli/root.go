package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dairychain-dev/dairychain/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "dairychain",
	Short: "DairyChain - dairy supply chain operations",
	Long: `DairyChain CLI - Manage farmers, milk collections and payouts.

DairyChain tracks milk from collection point to payout: farmer
registration and KYC, quality-graded collections, and monthly payments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dairychain version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewDashboardCmd())
	rootCmd.AddCommand(commands.NewFarmersCmd())
	rootCmd.AddCommand(commands.NewCollectionsCmd())
	rootCmd.AddCommand(commands.NewPaymentsCmd())
	rootCmd.AddCommand(commands.NewStaffCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
