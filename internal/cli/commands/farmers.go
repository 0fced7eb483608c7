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

// NewFarmersCmd creates the farmers command group
func NewFarmersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "farmers",
		Short: "Manage registered farmers",
	}

	cmd.AddCommand(newFarmersListCmd())
	cmd.AddCommand(newFarmersRegisterCmd())
	cmd.AddCommand(newFarmersShowCmd())

	return cmd
}

func newFarmersListCmd() *cobra.Command {
	var serverAlias, search, status string
	var page, size int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List farmers",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("farmers", "ls"), guard.Requirement{})
			if err != nil {
				return err
			}

			list, err := apiClient.ListFarmers(cmd.Context(), client.ListOptions{
				Page:   page,
				Size:   size,
				Search: search,
				Status: status,
			})
			if err != nil {
				return err
			}

			if len(list.Items) == 0 {
				fmt.Println("No farmers found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPHONE\tLOCATION\tKYC\tVOLUME (L)\tEARNINGS")
			for _, farmer := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1f\t%.2f\n",
					farmer.ID, farmer.Name, farmer.Phone, farmer.Location,
					farmer.KYCStatus, farmer.TotalVolume, farmer.TotalEarnings)
			}
			w.Flush()

			fmt.Printf("\nPage %d of %d (%d farmers)\n", list.Page, list.Pages, list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name or phone")
	cmd.Flags().StringVar(&status, "status", "", "Filter by KYC status")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")

	return cmd
}

func newFarmersRegisterCmd() *cobra.Command {
	var serverAlias string
	var req client.CreateFarmerRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new farmer",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("farmers", "register"), guard.Requirement{RequiredRole: models.RoleStaff})
			if err != nil {
				return err
			}

			farmer, err := apiClient.CreateFarmer(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Farmer registered: %s (%s)\n", farmer.Name, farmer.ID)
			fmt.Printf("  KYC status: %s\n", farmer.KYCStatus)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().StringVar(&req.Name, "name", "", "Farmer full name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Location, "location", "", "Farm location")
	cmd.Flags().StringVar(&req.NationalID, "national-id", "", "National ID number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("national-id")

	return cmd
}

func newFarmersShowCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "show <farmer-id>",
		Short: "Show a single farmer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := requireAccess(cmd.Context(), serverAlias,
				commandPath("farmers", "show"), guard.Requirement{})
			if err != nil {
				return err
			}

			farmer, err := apiClient.GetFarmer(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Name:        %s\n", farmer.Name)
			fmt.Printf("Phone:       %s\n", farmer.Phone)
			fmt.Printf("Location:    %s\n", farmer.Location)
			fmt.Printf("National ID: %s\n", farmer.NationalID)
			fmt.Printf("KYC status:  %s\n", farmer.KYCStatus)
			if farmer.RejectedReason != "" {
				fmt.Printf("  Rejected:  %s\n", farmer.RejectedReason)
			}
			fmt.Printf("Card issued: %v\n", farmer.CardIssued)
			fmt.Printf("Volume:      %.1f L\n", farmer.TotalVolume)
			fmt.Printf("Earnings:    %.2f\n", farmer.TotalEarnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")

	return cmd
}
