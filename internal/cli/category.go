package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoryList,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoryList,
	}

	rename := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a category, merging into an existing one",
		Args:  cobra.ExactArgs(2),
		RunE:  runCategoryRename,
	}

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a category",
		Long:  "Delete a category. Its lessons move to Uncategorized unless --delete-lessons is given.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategoryRm,
	}
	rm.Flags().Bool("delete-lessons", false, "Delete the category's lessons too")

	exam := &cobra.Command{
		Use:   "exam <name> <YYYY-MM-DD|none>",
		Short: "Set or clear a category's exam date",
		Args:  cobra.ExactArgs(2),
		RunE:  runCategoryExam,
	}

	cmd.AddCommand(list, rename, rm, exam)
	RootCmd.AddCommand(cmd)
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	cats, err := svc.ListCategories(cmd.Context())
	if err != nil {
		return err
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return output(cmd, cats, func(w io.Writer) {
		fmt.Fprintln(w, "NAME\tEXAM")
		for _, c := range cats {
			exam := "-"
			if c.ExamDate != nil {
				exam = formatDay(*c.ExamDate)
			}
			fmt.Fprintf(w, "%s\t%s\n", c.Name, exam)
		}
	})
}

func runCategoryRename(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.RenameCategory(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	return output(cmd, map[string]any{"ok": true, "from": args[0], "to": args[1]}, func(w io.Writer) {
		fmt.Fprintf(w, "renamed %q to %q\n", args[0], args[1])
	})
}

func runCategoryRm(cmd *cobra.Command, args []string) error {
	deleteLessons, _ := cmd.Flags().GetBool("delete-lessons")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.DeleteCategory(cmd.Context(), args[0], deleteLessons); err != nil {
		return err
	}
	return output(cmd, map[string]any{"ok": true, "name": args[0]}, func(w io.Writer) {
		fmt.Fprintf(w, "deleted category %q\n", args[0])
	})
}

func runCategoryExam(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	var exam *time.Time
	if args[1] != "none" {
		t, err := svc.ParseDate(args[1])
		if err != nil {
			return err
		}
		exam = &t
	}

	ctx := cmd.Context()
	if err := svc.SetExamDate(ctx, args[0], exam); err != nil {
		return err
	}
	days, err := svc.DaysUntilExam(ctx, args[0])
	if err != nil {
		return err
	}
	return output(cmd, map[string]any{"name": args[0], "days_until_exam": days}, func(w io.Writer) {
		if days == nil {
			fmt.Fprintf(w, "cleared exam date of %q\n", args[0])
			return
		}
		fmt.Fprintf(w, "%q exam in %d days\n", args[0], *days)
	})
}
