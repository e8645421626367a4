package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timeback/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.Check(cmd.Context(), nil, deps.Requirements(cfg))
			if cfg.Mistakes.Cleanup && strings.TrimSpace(cfg.LLM.APIKey) != "" {
				client := newLLMClient(cfg)
				statuses = append(statuses, deps.CheckService(cmd.Context(), "Cleanup LLM", client.Model(),
					"Transcript cleanup for the mistake detector", client))
			}
			err = emit(cmd, ctx.jsonOutput(), statuses, func() string {
				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					state := "ok"
					switch {
					case !s.Available && s.Optional:
						state = "missing (optional)"
					case !s.Available:
						state = "missing"
					}
					detail := s.Version
					if detail == "" {
						detail = s.Detail
					}
					rows = append(rows, []string{s.Name, s.Command, state, detail})
				}
				return renderTable([]string{"Tool", "Command", "Status", "Detail"}, rows, nil) + "\n"
			})
			if err != nil {
				return err
			}
			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, s := range missing {
					names = append(names, s.Name)
				}
				return fmt.Errorf("required tools missing: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
