package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/model"
)

func init() {
	export := &cobra.Command{
		Use:   "export",
		Short: "Export all data as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	export.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON export",
		Long:  `Replace all data with a JSON export. Use "-" to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	RootCmd.AddCommand(export, imp)
}

func runExport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("output")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	b, err := svc.Export(cmd.Context())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	if path == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return output(cmd, map[string]any{"ok": true, "path": path, "lessons": len(b.Lessons)}, func(w io.Writer) {
		fmt.Fprintf(w, "exported %d lessons to %s\n", len(b.Lessons), path)
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	var b model.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.Import(cmd.Context(), b); err != nil {
		return err
	}
	return output(cmd, map[string]any{"ok": true, "lessons": len(b.Lessons), "review_logs": len(b.ReviewLogs)}, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d lessons\n", len(b.Lessons))
	})
}
