package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newThresholdCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "threshold <input>",
		Short: "Estimate the silence threshold from loudness statistics",
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
			engine, closer, err := ctx.engine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			report, err := engine.EstimateThreshold(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			est := report.Estimate
			return emit(cmd, ctx.jsonOutput(), report, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Threshold: %.1f dB\n", est.ThresholdDB)
				fmt.Fprintf(&b, "Noise class: %s (dynamic range %.1f dB, bounds %.0f..%.0f dB)\n",
					est.NoiseClass, est.Window.DynamicRangeDB, est.MinDB, est.MaxDB)
				if est.Fallback {
					b.WriteString("No measurable chunks; fallback threshold used\n")
					return b.String()
				}
				rows := make([][]string, 0, len(est.Candidates))
				for _, c := range est.Candidates {
					rows = append(rows, []string{c.Name, fmt.Sprintf("%.1f", c.ValueDB), fmt.Sprintf("%.2f", c.Weight)})
				}
				b.WriteString(renderTable([]string{"Candidate", "dB", "Weight"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight}))
				b.WriteString("\n")
				return b.String()
			})
		},
	}
}
