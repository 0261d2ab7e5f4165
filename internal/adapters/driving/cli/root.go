// Package cli implements the command-line driver. It stands in for the
// routing layer: commands parse arguments, call the driving ports and
// print results, nothing more.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driving"
	"github.com/tenantrag/tenantrag/internal/logger"
)

// Services injected by main at startup.
var (
	registryService  driving.RegistryService
	ingestService    driving.IngestService
	retrieverService driving.RetrieverService
	ledgerService    driving.LedgerService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "tenantrag",
	Short: "Per-website retrieval with session accounting",
	Long: `tenantrag ingests website content as embedded chunks and answers
similarity queries scoped to a single website. Every query/answer
exchange is recorded against a session for audit and analytics.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"print pipeline diagnostics to stderr")
}

// Services bundles the driving ports the commands call.
type Services struct {
	Registry  driving.RegistryService
	Ingest    driving.IngestService
	Retriever driving.RetrieverService
	Ledger    driving.LedgerService
}

// Setup injects the services. Call once before Execute.
func Setup(s Services) {
	registryService = s.Registry
	ingestService = s.Ingest
	retrieverService = s.Retriever
	ledgerService = s.Ledger
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveWebsite looks up a website by url and fails when it is not
// registered.
func resolveWebsite(ctx context.Context, url string) (*domain.Website, error) {
	if registryService == nil {
		return nil, fmt.Errorf("registry service not configured")
	}
	website, err := registryService.FindWebsite(ctx, url)
	if err != nil {
		return nil, err
	}
	if website == nil {
		return nil, fmt.Errorf("website %s is not registered: %w", url, domain.ErrNotFound)
	}
	return website, nil
}
