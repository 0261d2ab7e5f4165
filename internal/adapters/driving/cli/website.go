package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	websiteAdminEmail string
	websiteName       string
	websiteDomain     string
	websiteNotes      []string
)

var websiteCmd = &cobra.Command{
	Use:   "website",
	Short: "Manage registered websites",
}

var websiteAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Register a website under an admin",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebsiteAdd,
}

var websiteRmCmd = &cobra.Command{
	Use:   "rm [url]",
	Short: "Delete a website and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebsiteRm,
}

func init() {
	websiteAddCmd.Flags().StringVar(&websiteAdminEmail, "admin", "", "owning admin's email (required)")
	websiteAddCmd.Flags().StringVar(&websiteName, "name", "", "display name")
	websiteAddCmd.Flags().StringVar(&websiteDomain, "domain", "", "site domain (derived from url when omitted)")
	websiteAddCmd.Flags().StringArrayVar(&websiteNotes, "note", nil, "context note (repeatable)")
	websiteCmd.AddCommand(websiteAddCmd)
	websiteCmd.AddCommand(websiteRmCmd)
	rootCmd.AddCommand(websiteCmd)
}

func runWebsiteAdd(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errors.New("registry service not configured")
	}
	siteURL := args[0]

	admin, err := registryService.FindAdmin(cmd.Context(), websiteAdminEmail)
	if err != nil {
		return err
	}
	if admin == nil {
		return fmt.Errorf("no admin registered with email %q", websiteAdminEmail)
	}

	siteDomain := websiteDomain
	if siteDomain == "" {
		if parsed, err := url.Parse(siteURL); err == nil {
			siteDomain = parsed.Hostname()
		}
	}

	website, err := registryService.RegisterWebsite(
		cmd.Context(), admin.ID, siteURL, websiteName, siteDomain, websiteNotes)
	if err != nil {
		return err
	}

	cmd.Printf("Website %s registered (%s)\n", website.ID, website.URL)
	return nil
}

func runWebsiteRm(cmd *cobra.Command, args []string) error {
	website, err := resolveWebsite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := registryService.RemoveWebsite(cmd.Context(), website.ID); err != nil {
		return err
	}

	cmd.Printf("Website %s removed\n", website.URL)
	return nil
}
