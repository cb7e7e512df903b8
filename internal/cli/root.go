// Package cli implements the cadence CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/config"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
	"github.com/sky-flux/cadence/internal/study"
)

var (
	cfgFile    string
	dbPath     string
	formatFlag string
	logLevel   string
)

// Set by the root command before any subcommand runs.
var (
	loader *config.Loader
	cfg    *config.Config
	appLog logger.Logger
)

var (
	clock    = time.Now
	location = time.Local
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Spaced-repetition study tracker",
	Long: `cadence schedules lesson reviews with an adaptive memory model or a
fixed interval table. Data lives in a single SQLite file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./cadence.yaml or ~/.cadence/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $CADENCE_STORAGE_PATH or ~/.cadence/cadence.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level")
}

func setup(cmd *cobra.Command, args []string) error {
	if formatFlag != "json" && formatFlag != "text" {
		return fmt.Errorf("unknown format %q, want json or text", formatFlag)
	}

	var err error
	loader = config.NewLoader()
	cfg, err = loader.Load(cfgFile, overrides())
	if err != nil {
		return err
	}
	appLog = logger.New(cfg.Log.LoggerConfig())
	logger.SetGlobal(appLog)
	return nil
}

// overrides maps persistent flags onto config keys.
func overrides() map[string]any {
	o := map[string]any{}
	if dbPath != "" {
		o["storage.path"] = dbPath
	}
	if logLevel != "" {
		o["log.level"] = logLevel
	}
	return o
}

// openService opens the configured database. A fresh database starts from
// the configured study settings.
func openService(cmd *cobra.Command, opts ...study.Option) (*study.Service, func(), error) {
	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	seeded, err := st.SeedSettings(cmd.Context(), cfg.Study.Settings())
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("seed settings: %w", err)
	}
	if seeded {
		appLog.Debug("settings seeded from config", "path", cfg.Storage.Path)
	}

	opts = append([]study.Option{
		study.WithLogger(appLog),
		study.WithClock(clock),
		study.WithLocation(location),
	}, opts...)
	return study.New(st, opts...), func() { st.Close() }, nil
}

// output writes v as indented JSON, or calls text with a tab-aligned writer.
func output(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if formatFlag == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func parseIntervals(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: interval %q", study.ErrInvalidInput, part)
		}
		out = append(out, n)
	}
	return out, nil
}

func formatIntervals(ivls []int) string {
	parts := make([]string, len(ivls))
	for i, d := range ivls {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func formatDay(t time.Time) string {
	return t.In(location).Format(model.DateLayout)
}

func writeLessons(w io.Writer, lessons []model.Lesson) {
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tDIFFICULTY\tMODE\tDUE")
	for _, l := range lessons {
		due := formatDay(l.NextReviewAt)
		if l.Completed() {
			due = "completed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, l.Title, l.Category, l.Difficulty, l.Mode(), due)
	}
}

func writeLesson(w io.Writer, l *model.Lesson) {
	fmt.Fprintf(w, "id\t%s\n", l.ID)
	fmt.Fprintf(w, "title\t%s\n", l.Title)
	fmt.Fprintf(w, "category\t%s\n", l.Category)
	if l.Subject != "" {
		fmt.Fprintf(w, "subject\t%s\n", l.Subject)
	}
	fmt.Fprintf(w, "difficulty\t%s\n", l.Difficulty)
	fmt.Fprintf(w, "mode\t%s\n", l.Mode())
	if len(l.CustomIntervals) > 0 {
		fmt.Fprintf(w, "intervals\t%s\n", formatIntervals(l.CustomIntervals))
	}
	if l.Completed() {
		fmt.Fprintln(w, "due\tcompleted")
	} else {
		fmt.Fprintf(w, "due\t%s\n", formatDay(l.NextReviewAt))
	}
	fmt.Fprintf(w, "reviews\t%d\n", len(l.ReviewHistory))
}
