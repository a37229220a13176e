package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/lectern/internal/storage"
)

func newListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the books in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			library, err := storage.Open(cfg.Output.Dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tGENRE\tCHAPTERS\tFREE")
			for _, record := range library.GetAll() {
				r := record.Result
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\n", record.ID, r.Title, r.Author, record.GenreKey, r.TotalChapters, record.IsFree)
			}
			return w.Flush()
		},
	}
}
