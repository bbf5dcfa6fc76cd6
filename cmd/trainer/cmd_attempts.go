package main

import (
	"errors"
	"exam_trainer_backend/internal/model"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	correctCount int
	totalCount   int
	timeSpent    time.Duration
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Completed exam attempts",
}

var attemptsAddCmd = &cobra.Command{
	Use:   "add <block>",
	Short: "Record a completed exam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession(cmd)
		if err != nil {
			return err
		}
		if totalCount <= 0 || correctCount < 0 || correctCount > totalCount {
			return errors.New("--correct must be between 0 and --total, and --total must be positive")
		}

		// The simulation's answers become part of the attempt.
		var answers model.AnswerSets
		if sim := store.GetSimulationProgress(cmd.Context(), sess, args[0], totalCount); sim.Success() {
			answers = sim.Data.Answers
		}
		a := model.NewExamAttempt(args[0], correctCount, totalCount, int(timeSpent.Seconds()), answers, nil, time.Now().UTC())
		saved := store.SaveExamAttempt(cmd.Context(), sess, a)
		if saved.Success() {
			if r := store.DeleteSimulationProgress(cmd.Context(), sess, args[0]); !r.Success() {
				logger.Warn("failed to drop finished simulation", zap.String("block", args[0]), zap.Error(r.Err))
			}
		}
		return printJSON(cmd.OutOrStdout(), saved.Descriptor())
	},
}

var attemptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attempts, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession(cmd)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), store.GetExamAttempts(cmd.Context(), sess).Descriptor())
	},
}

var attemptsDeleteCmd = &cobra.Command{
	Use:   "delete <attempt-id>",
	Short: "Delete an attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession(cmd)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), store.DeleteExamAttempt(cmd.Context(), sess, args[0]).Descriptor())
	},
}

func init() {
	attemptsAddCmd.Flags().IntVar(&correctCount, "correct", 0, "Correctly answered questions")
	attemptsAddCmd.Flags().IntVar(&totalCount, "total", 0, "Questions in the exam")
	attemptsAddCmd.Flags().DurationVar(&timeSpent, "time", 0, "Time spent, e.g. 12m30s")

	attemptsCmd.AddCommand(attemptsAddCmd)
	attemptsCmd.AddCommand(attemptsListCmd)
	attemptsCmd.AddCommand(attemptsDeleteCmd)
}
