package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence"
)

func init() {
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Show the next interval for each grade",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}

	RootCmd.AddCommand(cmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	p, err := svc.Preview(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, p, func(w io.Writer) {
		switch {
		case p.Completed:
			fmt.Fprintln(w, "completed, no further reviews")
		case p.Mode == cadence.ModeLegacy:
			fmt.Fprintf(w, "next\t%s\n", p.Label)
		default:
			if p.Migrated {
				fmt.Fprintln(w, "reviewing migrates this lesson to adaptive scheduling")
			}
			if p.Retrievability != nil {
				fmt.Fprintf(w, "recall\t%.0f%%\n", *p.Retrievability*100)
			}
			for _, g := range []cadence.Grade{cadence.Forgot, cadence.Hard, cadence.Good, cadence.Easy} {
				o := p.Options[g]
				fmt.Fprintf(w, "%s\t%s\t%s\n", g, o.Label, formatDay(o.Due))
			}
		}
	})
}
