package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/storage"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>...",
		Short: "Print the titles of codes from the local store",
		Long: `Print the title recorded for each code in the local store.

Run 'uniclass import' first to populate the store.

Example:
  uniclass lookup Ss_25_10_20 Pr_20_93_52_14`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(envFrom(cmd).cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			missing := 0
			for _, arg := range args {
				code, err := uniclass.Parse(arg)
				if err != nil {
					return err
				}
				record, err := store.Get(code)
				if errors.Is(err, storage.ErrNotFound) {
					cmd.PrintErrf("%s: not found\n", code)
					missing++
					continue
				}
				if err != nil {
					return err
				}
				cmd.Printf("%s\t%s\n", record.Code, record.Title)
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d codes not found", missing, len(args))
			}
			return nil
		},
	}
}
