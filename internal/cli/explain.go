package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"mdcat-quiz-client/internal/config"
	"mdcat-quiz-client/internal/domain"
	"mdcat-quiz-client/internal/explain"
	"github.com/spf13/cobra"
)

// NewExplainCmd requests an AI explanation for a question and waits for it.
func NewExplainCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <question-id>",
		Short: "Generate an AI explanation for a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questionID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("question id must be a number: %q", args[0])
			}
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()

			interval := config.Duration(d.cfg.Explain.Interval, time.Second)
			poller := explain.NewPollerWithInterval(d.client, interval, d.cfg.Explain.MaxPolls)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Generating explanation...")
			if err := poller.Run(cmd.Context(), questionID); err != nil {
				if errors.Is(err, domain.ErrRateLimited) {
					return fmt.Errorf("explanation limit reached; wait a while before requesting another")
				}
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, poller.Result())
			return nil
		},
	}
}
