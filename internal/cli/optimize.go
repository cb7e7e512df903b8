package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Fit the memory model to your review history",
		Long: `Fit the memory model to your review history and report the loss
under the current and fitted weights. With --apply the fitted weights are
saved and used for later reviews.`,
		Args: cobra.NoArgs,
		RunE: runOptimize,
	}

	cmd.Flags().Bool("apply", false, "Save the fitted weights")

	RootCmd.AddCommand(cmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	apply, _ := cmd.Flags().GetBool("apply")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := svc.Optimize(cmd.Context(), apply)
	if err != nil {
		return err
	}
	return output(cmd, res, func(w io.Writer) {
		fmt.Fprintf(w, "reviews\t%d\n", res.Reviews)
		fmt.Fprintf(w, "loss\t%.4f -> %.4f\n", res.LossBefore, res.LossAfter)
		if res.Retention != nil {
			fmt.Fprintf(w, "suggested retention\t%.2f\n", *res.Retention)
		}
		if res.Applied {
			fmt.Fprintln(w, "weights saved")
		} else {
			fmt.Fprintln(w, "dry run, use --apply to save")
		}
	})
}
