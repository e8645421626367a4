package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timeback/internal/pipeline"
	"timeback/internal/segments"
)

func newSilenceCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var minDuration float64
	var dualPass bool
	var speechFilter bool
	var planPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "silence <input>",
		Short: "Compute keep segments that cut silence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts := pipeline.SilenceOptionsFrom(cfg.Silence)
			flags := cmd.Flags()
			if flags.Changed("threshold") {
				opts.ThresholdDB = threshold
			}
			if flags.Changed("min-duration") {
				opts.MinDuration = minDuration
			}
			if flags.Changed("dual-pass") {
				opts.DualPass = dualPass
			}
			if flags.Changed("speech-filter") {
				opts.SpeechFilter = speechFilter
			}

			engine, closer, err := ctx.engine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			input := args[0]
			result, err := engine.ComputeSilenceKeepSegments(cmd.Context(), input, opts)
			if err != nil {
				return err
			}
			if err := finishPlan(cmd, ctx, input, result.Duration, result.Keep, planPath, outputPath); err != nil {
				return err
			}
			return emit(cmd, ctx.jsonOutput(), result, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Threshold: %.1f dB (%s)\n", result.ThresholdDB, result.ThresholdSource)
				if result.Verification != nil {
					fmt.Fprintf(&b, "Dual pass: %s (%s)\n", result.Verification.Chosen, result.Verification.Reason)
				}
				fmt.Fprintf(&b, "Silences: %d, removed %s of %s\n", len(result.Silences),
					formatSeconds(result.RemovedSeconds), formatSeconds(result.Duration))
				b.WriteString(segmentTable(result.Keep))
				b.WriteString("\n")
				return b.String()
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Silence threshold in dB (overrides the adaptive estimate)")
	cmd.Flags().Float64Var(&minDuration, "min-duration", 0, "Minimum silence length in seconds")
	cmd.Flags().BoolVar(&dualPass, "dual-pass", true, "Verify with a second, more sensitive pass")
	cmd.Flags().BoolVar(&speechFilter, "speech-filter", false, "Band-pass to the speech range before detection")
	cmd.Flags().StringVar(&planPath, "plan", "", "Write the keep segments to this JSON file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Render the trimmed video to this path")
	return cmd
}

// finishPlan writes the keep list and renders it when requested.
func finishPlan(cmd *cobra.Command, ctx *commandContext, input string, duration float64, keep []segments.KeepSegment, planPath, outputPath string) error {
	if planPath != "" {
		if err := writeSegmentPlan(planPath, segmentPlan{Input: input, Duration: duration, Keep: keep}); err != nil {
			return err
		}
	}
	if outputPath == "" {
		return nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	result, err := ctx.renderer(cfg, logger).Render(cmd.Context(), input, outputPath, keep)
	if err != nil {
		return err
	}
	if !ctx.jsonOutput() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Rendered %d segment(s), %s kept, to %s\n",
			result.Segments, formatSeconds(result.KeptSeconds), result.Output)
	}
	return nil
}
