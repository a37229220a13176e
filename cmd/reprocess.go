package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/storage"
)

func newReprocessCmd(g *globals) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reprocess <record-id>",
		Short: "Refresh the metadata of a stored book",
		Long: `Reads the source file of a book already in the library again and asks the
language model for fresh title, author, genre, description and language.
The record keeps its id, chapters, summaries and images.`,
		Example: `  lectern reprocess 3f2a9c1e-0d4b-4e8a-9a57-5d1c2b7e8f10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			in, err := newIngester(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			record, ok := in.library.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, args[0])
			}
			if err := in.reprocess(cmd.Context(), record); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, record)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml or json)")

	return cmd
}
