package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/study"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a lesson",
		Long:  "Add a lesson. The first review falls one interval after the start date.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAdd,
	}

	cmd.Flags().StringP("category", "c", "", "Category (default: Uncategorized)")
	cmd.Flags().StringP("subject", "s", "", "Subject")
	cmd.Flags().String("difficulty", "medium", "Difficulty: low, medium, high")
	cmd.Flags().String("intervals", "", "Comma-separated custom intervals in days")
	cmd.Flags().String("start", "", "Date first studied, YYYY-MM-DD (default: today)")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	subject, _ := cmd.Flags().GetString("subject")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	intervals, _ := cmd.Flags().GetString("intervals")
	start, _ := cmd.Flags().GetString("start")

	d, err := cadence.ParseDifficultyLabel(difficulty)
	if err != nil {
		return err
	}
	ivls, err := parseIntervals(intervals)
	if err != nil {
		return err
	}

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	in := study.NewLesson{
		Title:           strings.Join(args, " "),
		Category:        category,
		Subject:         subject,
		Difficulty:      d,
		CustomIntervals: ivls,
	}
	if start != "" {
		if in.StartDate, err = svc.ParseDate(start); err != nil {
			return err
		}
	}

	l, err := svc.AddLesson(cmd.Context(), in)
	if err != nil {
		return err
	}
	return output(cmd, l, func(w io.Writer) {
		fmt.Fprintf(w, "added %s %q, first review %s\n", l.ID, l.Title, formatDay(l.NextReviewAt))
	})
}
