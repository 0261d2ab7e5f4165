package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	adminID    string
	adminEmail string
	adminName  string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an admin account",
	RunE:  runAdminCreate,
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminID, "id", "", "admin id (generated when omitted)")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (required)")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "display name")
	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminCreate(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	admin, err := registryService.RegisterAdmin(cmd.Context(), adminID, adminEmail, adminName)
	if err != nil {
		return err
	}

	cmd.Printf("Admin %s registered (%s)\n", admin.ID, admin.Email)
	return nil
}
