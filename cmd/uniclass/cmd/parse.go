package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/uniclass"
)

// parsedCode is the --json form of one parse result.
type parsedCode struct {
	Input    string         `json:"input"`
	Valid    bool           `json:"valid"`
	Code     *uniclass.Code `json:"code,omitempty"`
	Table    string         `json:"table,omitempty"`
	Group    *uint8         `json:"group,omitempty"`
	SubGroup *uint8         `json:"sub_group,omitempty"`
	Section  *uint8         `json:"section,omitempty"`
	Object   *uint8         `json:"object,omitempty"`
	Error    string         `json:"error,omitempty"`
	Kind     string         `json:"kind,omitempty"`
}

func newParseCmd() *cobra.Command {
	parseCmd := &cobra.Command{
		Use:   "parse <code>...",
		Short: "Parse and validate codes",
		Long: `Parse one or more codes and print their fields.

The command fails if any input is invalid. Invalid inputs are reported with
their error kind (InvalidTable, InsufficientSegments, OutOfRange,
ParseIntError or TrailingSegments).

Examples:
  uniclass parse Ss_25_10_20
  uniclass parse --json Pr_20_93_52_14 EF_20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			opts := uniclass.ParseOptions{}
			opts.IgnoreTrailing, _ = cmd.Flags().GetBool("ignore-trailing")

			results := parseAll(args, opts)
			var err error
			if asJSON {
				err = writeParsedJSON(cmd.OutOrStdout(), results)
			} else {
				err = writeParsedText(cmd.OutOrStdout(), results)
			}
			if err != nil {
				return err
			}

			invalid := 0
			for _, r := range results {
				if !r.Valid {
					invalid++
				}
			}
			if invalid > 0 {
				return errInvalidCodes{invalid: invalid, total: len(results)}
			}
			return nil
		},
	}

	parseCmd.Flags().Bool("json", false, "Print results as JSON")
	parseCmd.Flags().Bool("ignore-trailing", false, "Ignore segments after the object level")
	return parseCmd
}

func parseAll(inputs []string, opts uniclass.ParseOptions) []parsedCode {
	results := make([]parsedCode, 0, len(inputs))
	for _, input := range inputs {
		code, err := uniclass.ParseWith(input, opts)
		if err != nil {
			results = append(results, parsedCode{Input: input, Error: err.Error(), Kind: uniclass.KindName(err)})
			continue
		}
		group := code.Group()
		r := parsedCode{Input: input, Valid: true, Code: &code, Table: code.Table().Name(), Group: &group}
		if v, ok := code.SubGroup(); ok {
			r.SubGroup = &v
		}
		if v, ok := code.Section(); ok {
			r.Section = &v
		}
		if v, ok := code.Object(); ok {
			r.Object = &v
		}
		results = append(results, r)
	}
	return results
}

func writeParsedJSON(w io.Writer, results []parsedCode) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeParsedText(w io.Writer, results []parsedCode) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		if !r.Valid {
			fmt.Fprintf(tw, "%s\tinvalid\t%s\t%s\n", r.Input, r.Kind, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\tgroup=%d%s%s%s\n", r.Input, r.Code, r.Table, *r.Group,
			level("sub_group", r.SubGroup), level("section", r.Section), level("object", r.Object))
	}
	return tw.Flush()
}

func level(name string, v *uint8) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(" %s=%d", name, *v)
}

// errInvalidCodes reports how many inputs failed to parse.
type errInvalidCodes struct{ invalid, total int }

func (e errInvalidCodes) Error() string {
	return fmt.Sprintf("%d of %d codes invalid", e.invalid, e.total)
}
