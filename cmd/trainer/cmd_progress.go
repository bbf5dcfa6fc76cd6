package main

import (
	"context"
	"errors"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/progress"

	"github.com/spf13/cobra"
)

// progressOps binds the generic progress subcommands to one mode.
type progressOps struct {
	get    func(ctx context.Context, sess progress.Session, block string, questions int) progress.Result[model.Progress]
	save   func(ctx context.Context, sess progress.Session, p model.Progress) progress.Result[model.Progress]
	remove func(ctx context.Context, sess progress.Session, block string) progress.Result[struct{}]
}

var (
	questionCount int
	questionNum   int
	answerFlags   []string
	cursorFlag    int
)

var trainerCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Untimed practice progress",
}

var simulationCmd = &cobra.Command{
	Use:   "simulation",
	Short: "In-flight timed exam progress",
}

func trainerOps() progressOps {
	return progressOps{
		get:    store.GetTrainerProgress,
		save:   store.SaveTrainerProgress,
		remove: store.ResetTrainerProgress,
	}
}

func simulationOps() progressOps {
	return progressOps{
		get:    store.GetSimulationProgress,
		save:   store.SaveSimulationProgress,
		remove: store.DeleteSimulationProgress,
	}
}

// newProgressCmds builds get/save/<removeName> for one mode. ops is resolved
// at run time because the store is opened in PersistentPreRunE.
func newProgressCmds(ops func() progressOps, removeName, removeShort string) []*cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <block>",
		Short: "Show progress for a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}
			r := ops().get(cmd.Context(), sess, args[0], questionCount)
			return printJSON(cmd.OutOrStdout(), r.Descriptor())
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save <block>",
		Short: "Record an answer or move the cursor",
		Example: `  trainer trainer save "Block 1" --questions 30 --question 1 --answer A
  trainer simulation save "Block 2" --questions 20 --cursor 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}
			if questionNum == 0 && cursorFlag < 0 {
				return errors.New("nothing to save: pass --question with --answer, or --cursor")
			}
			if questionNum > 0 && len(answerFlags) == 0 {
				return errors.New("--question needs at least one --answer")
			}

			o := ops()
			current := o.get(cmd.Context(), sess, args[0], questionCount)
			if !current.Success() {
				return printJSON(cmd.OutOrStdout(), current.Descriptor())
			}
			p := current.Data
			if questionNum > 0 {
				p.SetAnswer(questionNum-1, model.AnswerSet(answerFlags))
			}
			if cursorFlag >= 0 {
				p.Cursor = cursorFlag
				p.Normalize(questionCount)
			}
			return printJSON(cmd.OutOrStdout(), o.save(cmd.Context(), sess, p).Descriptor())
		},
	}

	removeCmd := &cobra.Command{
		Use:   removeName + " <block>",
		Short: removeShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ops().remove(cmd.Context(), sess, args[0]).Descriptor())
		},
	}

	for _, c := range []*cobra.Command{getCmd, saveCmd} {
		c.Flags().IntVar(&questionCount, "questions", 0, "Number of questions in the block")
	}
	saveCmd.Flags().IntVar(&questionNum, "question", 0, "Question number to answer, starting at 1")
	saveCmd.Flags().StringSliceVar(&answerFlags, "answer", nil, "Selected option; repeat for multiple choice")
	saveCmd.Flags().IntVar(&cursorFlag, "cursor", -1, "Move the cursor to this question index")

	return []*cobra.Command{getCmd, saveCmd, removeCmd}
}

func init() {
	trainerCmd.AddCommand(newProgressCmds(trainerOps, "reset", "Clear practice progress for a block")...)
	simulationCmd.AddCommand(newProgressCmds(simulationOps, "delete", "Drop the in-flight simulation of a block")...)
}
