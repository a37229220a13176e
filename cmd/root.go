package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/config"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	cfgFile string
	verbose bool
}

func (g *globals) config() (*config.Config, error) {
	return config.Load(g.cfgFile)
}

func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "lectern",
		Short: "Book ingestion with LLM-generated metadata, summaries and illustrations",
		Long: `Lectern ingests PDF and EPUB books into a reading library.

For each book it extracts the opening text, finds the chapter list, asks a
language model for title, author, genre, description and language, writes a
short summary for each chapter and can paint a cover and chapter
illustrations with an image generation service.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if g.verbose {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
		},
	}

	cmd.PersistentFlags().StringVar(&g.cfgFile, "config", "", "Path to a lectern.yaml config file")
	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newProcessCmd(g))
	cmd.AddCommand(newBatchCmd(g))
	cmd.AddCommand(newReprocessCmd(g))
	cmd.AddCommand(newIllustrateCmd(g))
	cmd.AddCommand(newListCmd(g))
	cmd.AddCommand(newChapterCmd(g))
	cmd.AddCommand(newProbeCmd(g))

	return cmd
}
