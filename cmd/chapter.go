package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/access"
	"github.com/lehigh-university-libraries/lectern/internal/storage"
)

var errAccessDenied = errors.New("chapter requires a premium subscription")

func newChapterCmd(g *globals) *cobra.Command {
	var tier string
	var output string

	cmd := &cobra.Command{
		Use:   "chapter <record-id> <number>",
		Short: "Show a chapter's title and summary as a given reader would",
		Long: `Shows one chapter of a stored book, applying the reading access rules:
anonymous readers only see free books, free-tier readers see free books and
the first two chapters of premium ones, premium readers see everything.`,
		Example: `  lectern chapter 3f2a9c1e-0d4b-4e8a-9a57-5d1c2b7e8f10 3 --tier free`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid chapter number %q: %w", args[1], err)
			}
			reader, err := readerForTier(tier)
			if err != nil {
				return err
			}

			cfg, err := g.config()
			if err != nil {
				return err
			}
			library, err := storage.Open(cfg.Output.Dir)
			if err != nil {
				return err
			}
			record, ok := library.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, args[0])
			}

			chapters := record.Result.ChapterData()
			if number < 1 || number > len(chapters) {
				return fmt.Errorf("chapter %d out of range (book has %d)", number, len(chapters))
			}
			if !access.CanAccessChapter(reader, record.IsFree, number) {
				return fmt.Errorf("%w: %s reader, chapter %d of %q", errAccessDenied, reader.Tier(), number, record.Result.Title)
			}

			return writeOutput(cmd.OutOrStdout(), output, chapters[number-1])
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "premium", "Reader tier: anonymous, free or premium")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml or json)")

	return cmd
}

func readerForTier(tier string) (access.Reader, error) {
	switch tier {
	case "anonymous":
		return access.Reader{}, nil
	case "free":
		return access.Reader{Authenticated: true, HasProfile: true}, nil
	case "premium":
		return access.Reader{Authenticated: true, HasProfile: true, Premium: true}, nil
	default:
		return access.Reader{}, fmt.Errorf("unknown tier %q (supported: anonymous, free, premium)", tier)
	}
}
