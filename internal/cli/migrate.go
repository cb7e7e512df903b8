package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move every legacy lesson to adaptive scheduling",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := svc.MigrateAll(cmd.Context())
	if err != nil {
		return err
	}
	return output(cmd, map[string]int{"migrated": n}, func(w io.Writer) {
		fmt.Fprintf(w, "migrated %d lessons\n", n)
	})
}
