package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lessons by due date",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")

	RootCmd.AddCommand(cmd)

	get := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	RootCmd.AddCommand(get)
}

func runList(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	lessons, err := svc.ListLessons(cmd.Context(), category)
	if err != nil {
		return err
	}
	return output(cmd, lessons, func(w io.Writer) { writeLessons(w, lessons) })
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := svc.GetLesson(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, l, func(w io.Writer) { writeLesson(w, l) })
}

// writeLessonsOrNone prints lessons, or msg when there are none.
func writeLessonsOrNone(w io.Writer, lessons []model.Lesson, msg string) {
	if len(lessons) == 0 {
		fmt.Fprintln(w, msg)
		return
	}
	writeLessons(w, lessons)
}
