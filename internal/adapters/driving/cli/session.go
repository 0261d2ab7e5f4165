package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	recordQuery    string
	recordAnswer   string
	recordCategory string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions and their response history",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start [url]",
	Short: "Start a session scoped to a website",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStart,
}

var sessionRecordCmd = &cobra.Command{
	Use:   "record [session-id]",
	Short: "Append a query/answer exchange to a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionRecord,
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Replay a session's responses in creation order",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionHistory,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls [url]",
	Short: "List a website's sessions in creation order",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionLs,
}

func init() {
	sessionRecordCmd.Flags().StringVar(&recordQuery, "query", "", "the user's question (required)")
	sessionRecordCmd.Flags().StringVar(&recordAnswer, "answer", "", "the generated answer (required)")
	sessionRecordCmd.Flags().StringVar(&recordCategory, "category", "", "free-form label")
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionRecordCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	if ledgerService == nil {
		return errors.New("ledger service not configured")
	}

	website, err := resolveWebsite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	session, err := ledgerService.StartSession(cmd.Context(), website.ID)
	if err != nil {
		return err
	}

	cmd.Printf("Session %s started for %s\n", session.ID, website.URL)
	for _, note := range session.Notes {
		cmd.Printf("  note: %s\n", note.Content)
	}
	return nil
}

func runSessionRecord(cmd *cobra.Command, args []string) error {
	if ledgerService == nil {
		return errors.New("ledger service not configured")
	}

	response, err := ledgerService.Record(cmd.Context(), args[0],
		recordQuery, recordAnswer, recordCategory)
	if err != nil {
		return err
	}

	cmd.Printf("Response %s recorded\n", response.ID)
	return nil
}

func runSessionHistory(cmd *cobra.Command, args []string) error {
	if ledgerService == nil {
		return errors.New("ledger service not configured")
	}

	responses, err := ledgerService.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if len(responses) == 0 {
		cmd.Println("No responses recorded.")
		return nil
	}

	for _, response := range responses {
		cmd.Printf("[%s] (%s)\n  Q: %s\n  A: %s\n",
			response.CreatedAt.Format("2006-01-02 15:04:05"),
			response.Category, response.Query, response.Answer)
	}
	return nil
}

func runSessionLs(cmd *cobra.Command, args []string) error {
	if ledgerService == nil {
		return errors.New("ledger service not configured")
	}

	website, err := resolveWebsite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	sessions, err := ledgerService.ListSessions(cmd.Context(), website.ID)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions.")
		return nil
	}

	for _, session := range sessions {
		cmd.Printf("%s  %s\n", session.ID, session.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
