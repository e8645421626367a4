package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "render <input> <plan.json>",
		Short: "Cut input down to the keep segments in a plan file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outputPath) == "" {
				return fmt.Errorf("--output is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			plan, err := readSegmentPlan(args[1])
			if err != nil {
				return err
			}
			result, err := ctx.renderer(cfg, logger).Render(cmd.Context(), args[0], outputPath, plan.Keep)
			if err != nil {
				return err
			}
			return emit(cmd, ctx.jsonOutput(), result, func() string {
				return fmt.Sprintf("Rendered %d segment(s), %s kept, to %s (attempts: %d)\n",
					result.Segments, formatSeconds(result.KeptSeconds), result.Output, result.Outcome.Attempts)
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination video path")
	return cmd
}
