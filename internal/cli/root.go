// Package cli implements the uigen command line.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/leofalp/uigen/internal/config"
)

// GlobalFlags are shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

type contextKey struct{}

// ErrInvalidSchema is returned when a command ends with a schema that did not
// validate. The details are printed before it is returned.
var ErrInvalidSchema = errors.New("schema is invalid")

// Execute runs the command line with args. Resources opened by the command
// are released even when it fails.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var env *environment
	root := newRootCmd(func(e *environment) { env = e })
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if env != nil {
		err = errors.Join(err, env.Close())
	}
	return err
}

func newRootCmd(onEnvironment func(*environment)) *cobra.Command {
	flags := &GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "uigen",
		Short: "Generate validated UI schemas with an LLM",
		Long: `uigen asks a language model for a UI schema, extracts the JSON from its
reply, validates it against the component catalog and retries with the
errors until the schema is valid or the run runs out of attempts or time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			env, err := newEnvironment(cmd.Context(), cfg, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			onEnvironment(env)
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, env))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "log errors only")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewExtractCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewCatalogCmd())

	return rootCmd
}

func environmentOf(cmd *cobra.Command) *environment {
	if cmd.Context() == nil {
		return nil
	}
	env, _ := cmd.Context().Value(contextKey{}).(*environment)
	return env
}
