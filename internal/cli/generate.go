package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/uigen/core/client"
	"github.com/leofalp/uigen/core/retry"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	var (
		jsonOutput  bool
		dryRun      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "generate [task...]",
		Short: "Generate a UI schema for a task",
		Long: `Generate asks the configured model for a UI schema and prints it once it
validates. The task is taken from the arguments, or from stdin when none are
given. With --interactive every stdin line is a separate task and the catalog
file is watched for changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := environmentOf(cmd)
			generator, err := env.newClient(cmd.Context(), interactive)
			if err != nil {
				return err
			}

			if interactive {
				return runInteractive(cmd, generator, jsonOutput)
			}

			task := strings.Join(args, " ")
			if task == "" {
				if task, err = readInput(cmd, nil); err != nil {
					return err
				}
			}

			if dryRun {
				built, key, err := generator.BuildPrompt(cmd.Context(), task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "prompt %s: ~%d tokens, sections %s\n",
					key[:12], built.TotalTokens, strings.Join(built.IncludedSections, ", "))
				fmt.Fprintln(cmd.OutOrStdout(), built.Text)
				return nil
			}

			return generateOne(cmd, generator, task, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full run report instead of the schema")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the prompt without calling the model")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read one task per stdin line")

	return cmd
}

func generateOne(cmd *cobra.Command, generator *client.Client, task string, jsonOutput bool) error {
	result, err := generator.GenerateUI(cmd.Context(), task)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if result.Succeeded {
		if err := printJSON(cmd.OutOrStdout(), result.FinalSchema); err != nil {
			return err
		}
	}

	if !result.Succeeded {
		reportFailure(cmd.ErrOrStderr(), result)
		return fmt.Errorf("%w: run %s ended %s after %d attempts", ErrInvalidSchema, result.RunID, result.State, len(result.Attempts))
	}
	return nil
}

func reportFailure(w io.Writer, result *retry.Result) {
	last := result.LastAttempt()
	if last == nil {
		return
	}
	fmt.Fprintf(w, "last attempt: %s\n", last.Validation.Summary())
	for _, e := range last.Validation.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}

func runInteractive(cmd *cobra.Command, generator *client.Client, jsonOutput bool) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	failures := 0
	for scanner.Scan() {
		task := strings.TrimSpace(scanner.Text())
		if task == "" {
			continue
		}
		if err := generateOne(cmd, generator, task, jsonOutput); err != nil {
			failures++
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		}
		if cmd.Context().Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tasks: %w", err)
	}
	if failures > 0 {
		return fmt.Errorf("%w: %d task(s) failed", ErrInvalidSchema, failures)
	}
	return nil
}
