package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/uigen/core/parse"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	var (
		all    bool
		schema bool
		repair bool
	)

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract JSON from a model reply",
		Long: `Extract finds the JSON in a model reply (fenced code blocks first, then
balanced braces) and prints it. It reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var opts []parse.Option
			if repair {
				opts = append(opts, parse.WithRepair())
			}

			switch {
			case schema:
				extracted, ok := parse.ExtractUISchema(text, opts...)
				if !ok {
					return errors.New("no UI schema found")
				}
				return printJSON(cmd.OutOrStdout(), extracted)
			case all:
				return printJSON(cmd.OutOrStdout(), parse.ExtractAllJSON(text, opts...))
			default:
				value, err := parse.ExtractJSON(text, opts...)
				if err != nil {
					return fmt.Errorf("extract: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), value)
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print every block that decodes, as an array")
	cmd.Flags().BoolVar(&schema, "schema", false, "print the first block shaped like a UI schema")
	cmd.Flags().BoolVar(&repair, "repair", false, "repair almost-JSON blocks")

	return cmd
}
