package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List lessons to review",
		Long: `List lessons to review. Views:
  today   due today or overdue (default)
  due     due exactly today
  missed  overdue
  cram    due within 48 hours, hardest first (cram mode only)`,
		Args: cobra.NoArgs,
		RunE: runDue,
	}

	cmd.Flags().String("view", "today", "View: today, due, missed, cram")

	RootCmd.AddCommand(cmd)
}

func runDue(cmd *cobra.Command, args []string) error {
	view, _ := cmd.Flags().GetString("view")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	var lessons []model.Lesson
	switch view {
	case "today":
		lessons, err = svc.Today(ctx)
	case "due":
		lessons, err = svc.DueToday(ctx)
	case "missed":
		lessons, err = svc.Missed(ctx)
	case "cram":
		lessons, err = svc.CramQueue(ctx)
	default:
		return fmt.Errorf("unknown view %q, want today, due, missed or cram", view)
	}
	if err != nil {
		return err
	}
	return output(cmd, lessons, func(w io.Writer) {
		writeLessonsOrNone(w, lessons, "nothing to review")
	})
}
