package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dairychain-dev/dairychain/internal/cli/client"
	"github.com/dairychain-dev/dairychain/internal/cli/guard"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd() *cobra.Command {
	var serverAlias string
	var admin bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the operations dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, serverAlias, admin)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().BoolVar(&admin, "admin", false, "Show the admin dashboard (admin accounts only)")

	return cmd
}

func runDashboard(cmd *cobra.Command, serverAlias string, admin bool) error {
	req := guard.Requirement{}
	if admin {
		req.AdminOnly = true
	}

	apiClient, _, err := requireAccess(cmd.Context(), serverAlias, "dashboard", req)
	if err != nil {
		return err
	}

	if admin {
		return renderAdminDashboard(cmd, apiClient)
	}
	return renderDashboard(cmd, apiClient)
}

func renderDashboard(cmd *cobra.Command, apiClient *client.Client) error {
	dash, err := apiClient.Dashboard(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	fmt.Fprintf(w, "Total farmers\t%d\n", dash.TotalFarmers)
	fmt.Fprintf(w, "Collections this month\t%d\n", dash.ActiveCollections)
	fmt.Fprintf(w, "Monthly revenue\t%.2f\n", dash.MonthlyRevenue)
	w.Flush()

	if len(dash.QualityDist) > 0 {
		fmt.Println("\nQuality distribution:")
		for _, grade := range []string{"A", "B", "C"} {
			fmt.Printf("  Grade %s: %d\n", grade, dash.QualityDist[grade])
		}
	}
	return nil
}

func renderAdminDashboard(cmd *cobra.Command, apiClient *client.Client) error {
	dash, err := apiClient.AdminDashboard(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	fmt.Fprintf(w, "Farmers (total/active/pending KYC)\t%d / %d / %d\n",
		dash.FarmerStats.Total, dash.FarmerStats.Active, dash.FarmerStats.PendingKYC)
	fmt.Fprintf(w, "Liters today\t%.1f\n", dash.CollectionStats.Today)
	fmt.Fprintf(w, "Liters this week\t%.1f\n", dash.CollectionStats.ThisWeek)
	fmt.Fprintf(w, "Liters this month\t%.1f\n", dash.CollectionStats.ThisMonth)
	fmt.Fprintf(w, "Average quality score\t%.1f\n", dash.CollectionStats.AvgQuality)
	fmt.Fprintf(w, "Payments (pending/completed)\t%d / %d\n",
		dash.PaymentStats.Pending, dash.PaymentStats.Completed)
	fmt.Fprintf(w, "Total paid out\t%.2f\n", dash.PaymentStats.TotalAmount)
	fmt.Fprintf(w, "Grades (A/B/C)\t%d / %d / %d\n",
		dash.QualityMetrics.GradeA, dash.QualityMetrics.GradeB, dash.QualityMetrics.GradeC)
	fmt.Fprintf(w, "Health (db/queue/api)\t%s / %s / %s\n",
		dash.SystemHealth.Database, dash.SystemHealth.Queue, dash.SystemHealth.API)
	w.Flush()

	feed, err := apiClient.Activity(cmd.Context(), 10)
	if err != nil {
		// The dashboard is still useful without the feed
		fmt.Printf("\nWarning: failed to load activity feed: %v\n", err)
		return nil
	}
	if len(feed) > 0 {
		fmt.Println("\nRecent activity:")
		for _, entry := range feed {
			fmt.Printf("  [%s] %s\n", entry.Kind, entry.Message)
		}
	}
	return nil
}
