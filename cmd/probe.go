package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
)

func newProbeCmd(g *globals) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the language model service answers",
		Example: `  lectern probe
  lectern probe --prompt "Say hello in French"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			client, err := cfg.AI.NewClient(cmd.Context(), nil, ai.WithoutProbe())
			if err != nil {
				return err
			}
			if err := client.Probe(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reach %s: %w", cfg.AI.Provider, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable (model %s)\n", cfg.AI.Provider, client.Model())

			if prompt == "" {
				return nil
			}
			response, err := client.Call(cmd.Context(), prompt, ai.DefaultOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), response)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Also send this prompt and print the reply")

	return cmd
}
