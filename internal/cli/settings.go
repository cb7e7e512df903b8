package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/study"
)

func init() {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change study settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsGet,
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show study settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsGet,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change study settings",
		Long:  "Change study settings. Only the flags given are changed.",
		Args:  cobra.NoArgs,
		RunE:  runSettingsSet,
	}
	set.Flags().String("intervals", "", "Comma-separated legacy intervals in days")
	set.Flags().String("preset", "", "Interval preset: "+strings.Join(presetNames(), ", "))
	set.Flags().Bool("cram", false, "Halve legacy intervals")
	set.Flags().Bool("adaptive", true, "Schedule new lessons with the adaptive model")
	set.Flags().Float64("retention", cadence.DefaultRetention, "Desired recall probability for adaptive lessons")
	set.Flags().Bool("reset-params", false, "Discard optimized model weights")
	set.MarkFlagsMutuallyExclusive("intervals", "preset")

	cmd.AddCommand(get, set)
	RootCmd.AddCommand(cmd)
}

func presetNames() []string {
	names := make([]string, 0, len(cadence.Presets))
	for name := range cadence.Presets {
		names = append(names, strings.ToLower(name))
	}
	slices.Sort(names)
	return names
}

func presetIntervals(name string) ([]int, bool) {
	for n, ivls := range cadence.Presets {
		if strings.EqualFold(n, name) {
			return slices.Clone(ivls), true
		}
	}
	return nil, false
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	s, err := svc.GetSettings(cmd.Context())
	if err != nil {
		return err
	}
	return output(cmd, s, func(w io.Writer) { writeSettings(w, s) })
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	var p study.SettingsPatch

	if flags.Changed("intervals") {
		v, _ := flags.GetString("intervals")
		ivls, err := parseIntervals(v)
		if err != nil {
			return err
		}
		p.Intervals = &ivls
	}
	if flags.Changed("preset") {
		v, _ := flags.GetString("preset")
		ivls, ok := presetIntervals(v)
		if !ok {
			return fmt.Errorf("unknown preset %q, want one of %s", v, strings.Join(presetNames(), ", "))
		}
		p.Intervals = &ivls
	}
	if flags.Changed("cram") {
		v, _ := flags.GetBool("cram")
		p.CramMode = &v
	}
	if flags.Changed("adaptive") {
		v, _ := flags.GetBool("adaptive")
		p.UseAdaptive = &v
	}
	if flags.Changed("retention") {
		v, _ := flags.GetFloat64("retention")
		p.DesiredRetention = &v
	}
	p.ResetParameters, _ = flags.GetBool("reset-params")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	s, err := svc.UpdateSettings(cmd.Context(), p)
	if err != nil {
		return err
	}
	return output(cmd, s, func(w io.Writer) { writeSettings(w, s) })
}

func writeSettings(w io.Writer, s model.Settings) {
	fmt.Fprintf(w, "intervals\t%s (%s)\n", formatIntervals(s.Intervals), cadence.PresetName(s.Intervals))
	fmt.Fprintf(w, "cram mode\t%t\n", s.CramMode)
	fmt.Fprintf(w, "adaptive\t%t\n", s.UseAdaptive)
	fmt.Fprintf(w, "retention\t%.2f\n", s.DesiredRetention)
	weights := "default"
	if s.Parameters != nil {
		weights = "optimized"
	}
	fmt.Fprintf(w, "weights\t%s\n", weights)
}
