package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/codec"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

var errLimitReached = errors.New("limit reached")

func newListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List stored codes",
		Long: `List codes from the local store in code order. With a prefix such as
Ss_25, only that code and its descendants are listed.

Examples:
  uniclass list Ss_25
  uniclass list --limit 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := openStore(envFrom(cmd).cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			printed := 0
			emit := func(r *codec.Record) error {
				if limit > 0 && printed >= limit {
					return errLimitReached
				}
				cmd.Printf("%s\t%s\n", r.Code, r.Title)
				printed++
				return nil
			}

			if len(args) == 1 {
				prefix, perr := uniclass.Parse(args[0])
				if perr != nil {
					return perr
				}
				err = store.Scan(prefix, emit)
			} else {
				err = store.ScanAll(emit)
			}
			if errors.Is(err, errLimitReached) {
				return nil
			}
			return err
		},
	}

	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of codes to print (0 for all)")
	return listCmd
}
