package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/study"
)

func init() {
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a lesson's details",
		Long: `Edit a lesson's details. Only the flags given are changed; the
schedule is kept. --intervals "" reverts to the settings intervals.`,
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}
	edit.Flags().String("title", "", "Title")
	edit.Flags().StringP("category", "c", "", "Category")
	edit.Flags().StringP("subject", "s", "", "Subject")
	edit.Flags().String("difficulty", "", "Difficulty: low, medium, high")
	edit.Flags().String("intervals", "", "Comma-separated custom intervals in days")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a lesson and its review history",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}

	dup := &cobra.Command{
		Use:   "dup <id>",
		Short: "Copy a lesson with a fresh schedule",
		Args:  cobra.ExactArgs(1),
		RunE:  runDup,
	}

	reset := &cobra.Command{
		Use:   "reset <id>",
		Short: "Restart a lesson's schedule and clear its history",
		Args:  cobra.ExactArgs(1),
		RunE:  runReset,
	}

	RootCmd.AddCommand(edit, rm, dup, reset)
}

func runEdit(cmd *cobra.Command, args []string) error {
	var p study.LessonPatch
	flags := cmd.Flags()
	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	p.Title = str("title")
	p.Category = str("category")
	p.Subject = str("subject")
	if v := str("difficulty"); v != nil {
		d, err := cadence.ParseDifficultyLabel(*v)
		if err != nil {
			return err
		}
		p.Difficulty = &d
	}
	if v := str("intervals"); v != nil {
		ivls, err := parseIntervals(*v)
		if err != nil {
			return err
		}
		if ivls == nil {
			ivls = []int{}
		}
		p.CustomIntervals = &ivls
	}

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := svc.EditLesson(cmd.Context(), args[0], p)
	if err != nil {
		return err
	}
	return output(cmd, l, func(w io.Writer) { writeLesson(w, l) })
}

func runRm(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.DeleteLesson(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output(cmd, map[string]any{"ok": true, "id": args[0]}, func(w io.Writer) {
		fmt.Fprintf(w, "deleted %s\n", args[0])
	})
}

func runDup(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := svc.DuplicateLesson(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, l, func(w io.Writer) {
		fmt.Fprintf(w, "added %s %q, first review %s\n", l.ID, l.Title, formatDay(l.NextReviewAt))
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := svc.ResetProgress(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, l, func(w io.Writer) {
		fmt.Fprintf(w, "reset %q, next review %s\n", l.Title, formatDay(l.NextReviewAt))
	})
}
