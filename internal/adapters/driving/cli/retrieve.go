package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var retrieveTopK int

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [url] [query]",
	Short: "Retrieve a website's chunks most similar to a query",
	Args:  cobra.ExactArgs(2),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top", "k", 0, "number of chunks to return (0 = default)")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	website, err := resolveWebsite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	contents, err := retrieverService.Retrieve(cmd.Context(), website.ID, args[1], retrieveTopK)
	if err != nil {
		return err
	}

	if len(contents) == 0 {
		cmd.Println("No matching content.")
		return nil
	}

	for i, content := range contents {
		cmd.Printf("[%d] %s\n", i+1, content)
	}
	return nil
}
