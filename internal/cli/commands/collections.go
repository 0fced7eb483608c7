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

// NewCollectionsCmd creates the collections command group
func NewCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Record and review milk collections",
	}

	cmd.AddCommand(newCollectionsListCmd())
	cmd.AddCommand(newCollectionsRecordCmd())

	return cmd
}

func newCollectionsListCmd() *cobra.Command {
	var serverAlias, farmerID string
	var page, size int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List milk collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("collections", "ls"), guard.Requirement{})
			if err != nil {
				return err
			}

			list, err := apiClient.ListCollections(cmd.Context(), client.ListOptions{
				Page:     page,
				Size:     size,
				FarmerID: farmerID,
			})
			if err != nil {
				return err
			}

			if len(list.Items) == 0 {
				fmt.Println("No collections found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tFARMER\tLITERS\tTEMP\tFAT\tPROTEIN\tGRADE\tAMOUNT")
			for _, c := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%s\t%.2f\n",
					c.Date, c.FarmerID, c.Liters, c.Temperature,
					c.FatContent, c.ProteinContent, c.QualityGrade, c.TotalAmount)
			}
			w.Flush()

			fmt.Printf("\nPage %d of %d (%d collections)\n", list.Page, list.Pages, list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&farmerID, "farmer", "", "Filter by farmer ID")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")

	return cmd
}

func newCollectionsRecordCmd() *cobra.Command {
	var serverAlias string
	var req client.CreateCollectionRequest

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a milk collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, manager, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("collections", "record"), guard.Requirement{RequiredRole: models.RoleStaff})
			if err != nil {
				return err
			}

			// The recording staff member is the logged-in user
			req.StaffID = manager.Current().User.ID

			collection, err := apiClient.CreateCollection(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Collection recorded: %.1f L on %s\n", collection.Liters, collection.Date)
			fmt.Printf("  Grade: %s, rate %.2f/L, total %.2f\n",
				collection.QualityGrade, collection.PricePerLiter, collection.TotalAmount)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&req.FarmerID, "farmer", "", "Farmer ID")
	cmd.Flags().StringVar(&req.Date, "date", "", "Collection date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&req.Liters, "liters", 0, "Quantity in liters")
	cmd.Flags().Float64Var(&req.Temperature, "temperature", 0, "Milk temperature (°C)")
	cmd.Flags().Float64Var(&req.FatContent, "fat", 0, "Fat content (%)")
	cmd.Flags().Float64Var(&req.ProteinContent, "protein", 0, "Protein content (%)")
	_ = cmd.MarkFlagRequired("farmer")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("liters")
	_ = cmd.MarkFlagRequired("temperature")
	_ = cmd.MarkFlagRequired("fat")
	_ = cmd.MarkFlagRequired("protein")

	return cmd
}
