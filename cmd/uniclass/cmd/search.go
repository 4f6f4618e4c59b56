package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/index"
)

func newSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Find codes by words in their titles",
		Long: `Print the entries whose titles contain a word starting with every term.
The catalog is read from the configured source (catalog.source).

Examples:
  uniclass search framed wall
  uniclass search --limit 5 partition`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			load, err := catalogLoader(e)
			if err != nil {
				return err
			}
			cat, err := load()
			if err != nil {
				return err
			}

			for _, entry := range index.Build(cat).Search(strings.Join(args, " "), limit) {
				cmd.Printf("%s\t%s\n", entry.Code, entry.Title)
			}
			return nil
		},
	}

	searchCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to print (0 for all)")
	return searchCmd
}
