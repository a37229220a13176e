package cmd

import (
	"github.com/spf13/cobra"
)

func newProcessCmd(g *globals) *cobra.Command {
	var opts ingestOptions
	var output string

	cmd := &cobra.Command{
		Use:   "process <book.pdf|book.epub>",
		Short: "Extract metadata and chapter summaries from a book",
		Long: `Reads the opening of a PDF or EPUB, finds its chapters, asks the language
model for the book's metadata and chapter summaries, and stores the result in
the library directory.

Only unreadable files fail the command; when the language model misbehaves
the record is filled with defaults instead.`,
		Example: `  # Process an EPUB with summaries
  lectern process ./books/moby-dick.epub

  # Metadata only, then paint a cover and chapter illustrations
  lectern process ./books/notes.pdf --summaries=false --images

  # Use OpenAI instead of a local Ollama
  LECTERN_AI_PROVIDER=openai lectern process ./books/emma.epub --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			in, err := newIngester(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			record, err := in.ingest(cmd.Context(), args[0], opts)
			if record != nil {
				if writeErr := writeOutput(cmd.OutOrStdout(), output, record); writeErr != nil {
					return writeErr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.summaries, "summaries", true, "Generate chapter summaries")
	cmd.Flags().BoolVar(&opts.images, "images", false, "Generate a cover and chapter illustrations")
	cmd.Flags().BoolVar(&opts.free, "free", false, "Mark the book as free to read")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml or json)")

	return cmd
}
