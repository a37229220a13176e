package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/export"
	"github.com/lehigh-university-libraries/lectern/internal/extract"
)

func newBatchCmd(g *globals) *cobra.Command {
	var opts ingestOptions
	var concurrency int
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "batch <file-or-directory>...",
		Short: "Process many books and export a catalog",
		Long: `Processes every PDF and EPUB given on the command line or found under the
given directories. A book that fails is logged and skipped; the rest carry on.

With --catalog the whole library is written to a Parquet or JSONL catalog once
the batch finishes.`,
		Example: `  # Process a directory, two books at a time
  lectern batch ./incoming --concurrency 2

  # Process and export a Parquet catalog
  lectern batch ./incoming --catalog ./catalog.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
			}

			paths, err := collectBooks(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no PDF or EPUB files found")
			}

			cfg, err := g.config()
			if err != nil {
				return err
			}
			in, err := newIngester(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			slog.Info("Processing books", "count", len(paths), "concurrency", concurrency)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				failed    []string
				semaphore = make(chan struct{}, concurrency)
			)
			for i, path := range paths {
				wg.Add(1)
				go func(idx int, path string) {
					defer wg.Done()
					semaphore <- struct{}{}        // Acquire
					defer func() { <-semaphore }() // Release

					slog.Info("Processing book", "path", path, "progress", fmt.Sprintf("%d/%d", idx+1, len(paths)))
					if _, err := in.ingest(cmd.Context(), path, opts); err != nil {
						slog.Error("Failed to process book", "path", path, "error", err)
						mu.Lock()
						failed = append(failed, path)
						mu.Unlock()
					}
				}(i, path)
			}
			wg.Wait()

			if catalogPath != "" {
				if err := export.WriteCatalog(catalogPath, in.library.GetAll()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d of %d books into %s\n", len(paths)-len(failed), len(paths), in.library.Root())
			sort.Strings(failed)
			for _, path := range failed {
				fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", path)
			}
			if len(failed) == len(paths) {
				return fmt.Errorf("all %d books failed", len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.summaries, "summaries", true, "Generate chapter summaries")
	cmd.Flags().BoolVar(&opts.images, "images", false, "Generate covers and chapter illustrations")
	cmd.Flags().BoolVar(&opts.free, "free", false, "Mark the books as free to read")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Books processed at the same time")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Write the library catalog to this .parquet or .jsonl file")

	return cmd
}

// collectBooks expands directories into the PDF and EPUB files below them.
func collectBooks(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := extract.FormatFromPath(path); ok {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	return paths, nil
}
