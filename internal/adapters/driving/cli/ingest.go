package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenantrag/tenantrag/internal/adapters/driving/watch"
)

var ingestWatchDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest [url] [file...]",
	Short: "Ingest text files as embedded chunks for a website",
	Long: `Reads each file, splits it into chunks on blank lines, embeds the
chunks and persists them for the website. Each file is one atomic batch:
it becomes searchable entirely or not at all.

With --watch, the given directory is monitored and changed files are
re-ingested until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestWatchDir, "watch", "", "watch a directory instead of reading files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	website, err := resolveWebsite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if ingestWatchDir != "" {
		watcher, err := watch.NewWatcher(ingestService, website.ID)
		if err != nil {
			return err
		}
		defer watcher.Close()
		return watcher.Run(cmd.Context(), ingestWatchDir)
	}

	if len(args) < 2 {
		return errors.New("no files given (or use --watch)")
	}

	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		texts := watch.SplitChunks(string(data))
		if len(texts) == 0 {
			cmd.Printf("%s: empty, skipped\n", path)
			continue
		}

		chunks, err := ingestService.Ingest(cmd.Context(), website.ID, texts)
		if err != nil {
			return err
		}
		cmd.Printf("%s: %d chunks ingested\n", path, len(chunks))
	}

	return nil
}
