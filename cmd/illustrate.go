package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/storage"
)

func newIllustrateCmd(g *globals) *cobra.Command {
	var maxChapters int

	cmd := &cobra.Command{
		Use:   "illustrate <record-id>",
		Short: "Regenerate the cover and chapter illustrations of a stored book",
		Long: `Paints a new cover and chapter illustrations for a book already in the
library, replacing the previous images. Chapters with a summary are drawn from
the summary; the others from their title.`,
		Example: `  lectern illustrate 3f2a9c1e-0d4b-4e8a-9a57-5d1c2b7e8f10 --max-chapters 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-chapters") {
				cfg.Images.MaxChapters = maxChapters
			}

			in, err := newIngester(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			record, ok := in.library.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, args[0])
			}
			if err := in.illustrate(cmd.Context(), record); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d illustrations for %q (cover: %t)\n",
				len(record.Illustrations), record.Result.Title, record.Cover != nil)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChapters, "max-chapters", 20, "Maximum chapters to illustrate")

	return cmd
}
