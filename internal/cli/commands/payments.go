package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dairychain-dev/dairychain/internal/cli/client"
	"github.com/dairychain-dev/dairychain/internal/cli/guard"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// NewPaymentsCmd creates the payments command group
func NewPaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Review and queue farmer payouts",
	}

	cmd.AddCommand(newPaymentsListCmd())
	cmd.AddCommand(newPaymentsCreateCmd())

	return cmd
}

func newPaymentsListCmd() *cobra.Command {
	var serverAlias, status, farmerID string
	var page, size int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List payouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("payments", "ls"), guard.Requirement{})
			if err != nil {
				return err
			}

			list, err := apiClient.ListPayments(cmd.Context(), client.ListOptions{
				Page:     page,
				Size:     size,
				Status:   status,
				FarmerID: farmerID,
			})
			if err != nil {
				return err
			}

			if len(list.Items) == 0 {
				fmt.Println("No payments found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "PERIOD\tFARMER\tLITERS\tAMOUNT\tMETHOD\tSTATUS\tREFERENCE")
			for _, p := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%.2f\t%s\t%s\t%s\n",
					p.PeriodMonth, p.FarmerID, p.TotalLiters, p.TotalAmount,
					p.PaymentMethod, p.Status, p.TxReference)
			}
			w.Flush()

			fmt.Printf("\nPage %d of %d (%d payments)\n", list.Page, list.Pages, list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&farmerID, "farmer", "", "Filter by farmer ID")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")

	return cmd
}

func newPaymentsCreateCmd() *cobra.Command {
	var serverAlias string
	var req client.CreatePaymentRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a manual payout",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("payments", "create"), guard.Requirement{RequiredRole: models.RoleStaff})
			if err != nil {
				return err
			}

			payment, err := apiClient.CreatePayment(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Payout queued: %.2f to farmer %s for %s\n",
				payment.TotalAmount, payment.FarmerID, payment.PeriodMonth)
			fmt.Printf("  Status: %s\n", payment.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&req.FarmerID, "farmer", "", "Farmer ID")
	cmd.Flags().StringVar(&req.PeriodMonth, "period", "", "Payout period (YYYY-MM)")
	cmd.Flags().Float64Var(&req.TotalLiters, "liters", 0, "Total liters for the period")
	cmd.Flags().Float64Var(&req.RatePerLiter, "rate", 0, "Rate per liter")
	cmd.Flags().Float64Var(&req.TotalAmount, "amount", 0, "Total payout amount")
	cmd.Flags().StringVar(&req.PaymentMethod, "method", "mpesa", "Payment method (mpesa, bank, cash)")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "M-Pesa phone number")
	cmd.Flags().StringVar(&req.AccountNumber, "account", "", "Bank account number")
	_ = cmd.MarkFlagRequired("farmer")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("liters")
	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
