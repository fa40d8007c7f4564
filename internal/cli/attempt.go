package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"mdcat-quiz-client/internal/attempt"
	"mdcat-quiz-client/internal/config"
	"mdcat-quiz-client/internal/domain"
	"mdcat-quiz-client/internal/infra/memory"
	"github.com/spf13/cobra"
)

// NewAttemptCmd builds the interactive quiz attempt subcommand.
func NewAttemptCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "attempt <quiz-id>",
		Short: "Take a quiz, resuming any saved progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("quiz id must be a number: %q", args[0])
			}
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()
			return runAttempt(cmd.Context(), d, quizID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runAttempt(ctx context.Context, d *deps, quizID int, in io.Reader, out io.Writer) error {
	quizTTL := config.Duration(d.cfg.Quiz.TTL, 10*time.Minute)
	cached := memory.NewQuizCache(d.client, quizTTL)

	debounce := config.Duration(d.cfg.Attempt.Debounce, 500*time.Millisecond)
	ctrl := attempt.NewControllerWithClock(cached, d.store, debounce, time.Now)

	if err := ctrl.Load(ctx, quizID); err != nil {
		return fmt.Errorf("quiz not available: %w", err)
	}
	defer ctrl.Close()

	quiz := ctrl.Quiz()
	fmt.Fprintf(out, "\n%s\n", quiz.Title)
	if quiz.Description != "" {
		fmt.Fprintln(out, quiz.Description)
	}

	if ctrl.Empty() {
		fmt.Fprintln(out, "This quiz has no questions yet.")
		return nil
	}
	if err := ctrl.StartErr(); err != nil {
		log.Printf("could not start attempt: %v (answers will not submit until it succeeds)", err)
	}

	reader := bufio.NewReader(in)
	for {
		question, ok := ctrl.CurrentQuestion()
		if !ok {
			fmt.Fprintln(out, "This quiz has no questions yet.")
			return nil
		}
		printQuestion(out, ctrl, question)

		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF: flush-on-teardown in Close keeps the progress.
			fmt.Fprintln(out, "\nProgress saved.")
			return nil
		}

		switch input := strings.ToUpper(strings.TrimSpace(line)); input {
		case "N":
			ctrl.NextQuestion()
		case "P":
			ctrl.PreviousQuestion()
		case "S":
			if done := submit(ctx, ctrl, d, out); done {
				return nil
			}
		case "Q":
			fmt.Fprintln(out, "Progress saved. Run the same command to resume.")
			return nil
		default:
			if choiceID, ok := choiceForLetter(question, input); ok {
				ctrl.SelectAnswer(ctx, choiceID)
				ctrl.NextQuestion()
			} else {
				fmt.Fprintln(out, "Enter a choice letter, or n/p to move, s to submit, q to quit.")
			}
		}
	}
}

func submit(ctx context.Context, ctrl *attempt.Controller, d *deps, out io.Writer) bool {
	if err := ctrl.EnsureAttempt(ctx); err != nil {
		fmt.Fprintf(out, "Cannot submit yet: %v. Try again.\n", err)
		return false
	}
	attemptID, err := ctrl.Submit(ctx)
	if err != nil {
		fmt.Fprintf(out, "Submission failed: %v. Your answers are intact; submit again to retry.\n", err)
		return false
	}
	if result, ok := d.store.LoadResult(attemptID); ok {
		fmt.Fprintf(out, "\nSubmitted. Score: %d/%d (%ds)\n", result.Score, result.TotalQuestions, result.TimeTakenSeconds)
	} else {
		fmt.Fprintf(out, "\nSubmitted attempt %d.\n", attemptID)
	}
	return true
}

func printQuestion(out io.Writer, ctrl *attempt.Controller, question domain.Question) {
	fmt.Fprintf(out, "\n[%d/%d] %s\n", ctrl.CurrentIndex()+1, len(ctrl.Questions()), question.Text)
	answers := ctrl.Answers()
	for i, choice := range question.Choices {
		marker := " "
		if answers[question.ID] == choice.ID {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %c. %s\n", marker, 'A'+i, choice.Text)
	}
	fmt.Fprintf(out, "answered %d/%d> ", ctrl.AnsweredCount(), len(ctrl.Questions()))
}

func choiceForLetter(question domain.Question, input string) (int, bool) {
	if len(input) != 1 {
		return 0, false
	}
	idx := int(input[0] - 'A')
	if idx < 0 || idx >= len(question.Choices) {
		return 0, false
	}
	return question.Choices[idx].ID, true
}
