package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/study"
)

func init() {
	review := &cobra.Command{
		Use:   "review <id> <grade>",
		Short: "Record a review graded forgot, hard, good or easy",
		Args:  cobra.ExactArgs(2),
		RunE:  runReview,
	}
	review.Flags().Int("duration", -1, "Time spent on the review in milliseconds")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a lesson reviewed",
		Long: `Mark a lesson reviewed. Legacy lessons advance one stage even when
adaptive scheduling is on; adaptive lessons are graded good.`,
		Args: cobra.ExactArgs(1),
		RunE: runDone,
	}
	done.Flags().Int("duration", -1, "Time spent on the review in milliseconds")

	RootCmd.AddCommand(review, done)
}

func reviewOptions(cmd *cobra.Command) []study.ReviewOption {
	ms, _ := cmd.Flags().GetInt("duration")
	if ms < 0 {
		return nil
	}
	return []study.ReviewOption{study.WithDuration(ms)}
}

func runReview(cmd *cobra.Command, args []string) error {
	g, err := cadence.ParseGrade(args[1])
	if err != nil {
		return err
	}

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	out, err := svc.Review(cmd.Context(), args[0], g, reviewOptions(cmd)...)
	if err != nil {
		return err
	}
	return output(cmd, out, func(w io.Writer) { writeOutcome(w, out) })
}

func runDone(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	out, err := svc.MarkDone(cmd.Context(), args[0], reviewOptions(cmd)...)
	if err != nil {
		return err
	}
	return output(cmd, out, func(w io.Writer) { writeOutcome(w, out) })
}

func writeOutcome(w io.Writer, out *study.ReviewOutcome) {
	if out.Migrated {
		fmt.Fprintln(w, "migrated to adaptive scheduling")
	}
	if out.Completed {
		fmt.Fprintf(w, "%q completed\n", out.Lesson.Title)
		return
	}
	fmt.Fprintf(w, "%q next review %s (in %s)\n",
		out.Lesson.Title, formatDay(out.Due), cadence.FormatInterval(float64(out.Interval)))
}
