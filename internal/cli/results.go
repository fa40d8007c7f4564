package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// NewResultsCmd groups the local results archive commands.
func NewResultsCmd(configPath, apiURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect locally saved attempt results",
	}
	cmd.AddCommand(newResultsListCmd(configPath, apiURL))
	cmd.AddCommand(newResultsShowCmd(configPath, apiURL))
	cmd.AddCommand(newResultsClearCmd(configPath, apiURL))
	return cmd
}

func newResultsListCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List finished and in-progress attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()
			out := cmd.OutOrStdout()

			results := d.store.ListResults()
			// Store ordering is unspecified; most-recently-started first.
			sort.Slice(results, func(i, j int) bool {
				return results[i].StartedAt > results[j].StartedAt
			})
			if len(results) == 0 {
				fmt.Fprintln(out, "No finished attempts.")
			}
			for _, result := range results {
				fmt.Fprintf(out, "attempt %d  quiz %d  score %d/%d  started %s\n",
					result.AttemptID, result.QuizID, result.Score, result.TotalQuestions, result.StartedAt)
			}

			inProgress := d.store.ListInProgress()
			sort.Slice(inProgress, func(i, j int) bool {
				return inProgress[i].StartedAt > inProgress[j].StartedAt
			})
			for _, snapshot := range inProgress {
				fmt.Fprintf(out, "in progress  quiz %d  answered %d  started %s\n",
					snapshot.QuizID, len(snapshot.Answers), snapshot.StartedAt)
			}
			return nil
		},
	}
}

func newResultsShowCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <attempt-id>",
		Short: "Show one saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attemptID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("attempt id must be a number: %q", args[0])
			}
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()

			result, ok := d.store.LoadResult(attemptID)
			if !ok {
				// Fall back to the backend's record of the attempt.
				result, err = d.client.AttemptResult(cmd.Context(), attemptID)
				if err != nil {
					return fmt.Errorf("no local result for attempt %d and remote lookup failed: %w", attemptID, err)
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "attempt %d  quiz %d\n", result.AttemptID, result.QuizID)
			fmt.Fprintf(out, "score %d/%d in %ds\n", result.Score, result.TotalQuestions, result.TimeTakenSeconds)
			fmt.Fprintf(out, "started %s  submitted %s\n", result.StartedAt, result.SubmittedAt)
			fmt.Fprintf(out, "answers recorded: %d\n", len(result.Answers))
			return nil
		},
	}
}

func newResultsClearCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all locally saved attempts and results",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()
			d.store.ClearAll()
			fmt.Fprintln(cmd.OutOrStdout(), "Local attempt data deleted.")
			return nil
		},
	}
}
