package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/study"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show mastery, exam pressure and recent activity",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	cmd.Flags().StringP("category", "c", "", "Limit mastery to one category")
	cmd.Flags().Int("days", 30, "Days of activity to show")

	RootCmd.AddCommand(cmd)
}

type statsReport struct {
	Mastery    study.MasteryStats   `json:"mastery"`
	Categories []study.CategoryStat `json:"categories"`
	Activity   []model.Activity     `json:"activity"`
}

func runStats(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	days, _ := cmd.Flags().GetInt("days")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	var r statsReport
	if r.Mastery, err = svc.MasteryStats(ctx, category); err != nil {
		return err
	}
	if r.Categories, err = svc.CategoryStats(ctx); err != nil {
		return err
	}
	if r.Activity, err = svc.Activity(ctx, days); err != nil {
		return err
	}

	return output(cmd, r, func(w io.Writer) {
		fmt.Fprintf(w, "mastered\t%d/%d (%d%%)\n", r.Mastery.Completed, r.Mastery.Total, r.Mastery.Percent)
		if len(r.Categories) > 0 {
			fmt.Fprintln(w, "\nCATEGORY\tLESSONS\tPENDING\tEXAM")
			for _, c := range r.Categories {
				exam := "-"
				if c.DaysUntilExam != nil {
					exam = fmt.Sprintf("%s (%d days)", formatDay(*c.ExamDate), *c.DaysUntilExam)
				}
				if c.Warning {
					exam += " behind schedule"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", c.Name, c.Total, c.Pending, exam)
			}
		}
		total := 0
		for _, a := range r.Activity {
			total += a.Count
		}
		fmt.Fprintf(w, "\nreviews in the last %d days\t%d\n", days, total)
	})
}
