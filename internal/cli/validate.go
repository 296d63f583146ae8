package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/uigen/core/parse"
	"github.com/leofalp/uigen/core/schema"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	var (
		jsonOutput  bool
		catalogPath string
	)

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a UI schema",
		Long: `Validate checks a UI schema, or a model reply containing one, against the
schema contract and the configured component catalog. It reads stdin when no
file is given and exits non-zero when the schema is invalid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := environmentOf(cmd)
			if catalogPath != "" {
				env.cfg.Catalog.Path = catalogPath
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			cat, err := env.loadCatalog(false, nil)
			if err != nil {
				return err
			}
			opts, err := env.validatorOptions(cat)
			if err != nil {
				return err
			}

			var result schema.ValidationResult
			if value, err := decodeSchema(text); err != nil {
				result = schema.Failure(schema.CodeExtractionFailed, "", err.Error())
			} else {
				result = schema.NewValidator(opts...).Validate(value)
			}

			if jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printValidation(cmd, result)
			}

			if !result.Valid {
				return ErrInvalidSchema
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the validation result as JSON")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file, overriding catalog.path")

	return cmd
}

// decodeSchema accepts a bare JSON document as well as a model reply with
// fenced blocks.
func decodeSchema(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return value, nil
	}
	candidate, err := parse.ExtractCandidate(text)
	if err != nil {
		return nil, err
	}
	return candidate.Value, nil
}

func printValidation(cmd *cobra.Command, result schema.ValidationResult) {
	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintln(out, "valid")
	} else {
		fmt.Fprintf(out, "invalid: %d error(s)\n", len(result.Errors))
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error   %s\n", e.Error())
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  warning %s\n", w.Error())
	}
}
