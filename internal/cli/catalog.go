package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewCatalogCmd creates the catalog command.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the component catalog",
	}

	var path string
	describe := &cobra.Command{
		Use:   "describe",
		Short: "Print the catalog documentation sent to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := environmentOf(cmd)
			if path != "" {
				env.cfg.Catalog.Path = path
			}
			cat, err := env.loadCatalog(false, nil)
			if err != nil {
				return err
			}
			if cat == nil {
				return errors.New("no catalog configured; set catalog.path or pass --file")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# Catalog %s\n\n%s\n", cat.Version(), cat.Describe())
			return nil
		},
	}
	describe.Flags().StringVarP(&path, "file", "f", "", "catalog file, overriding catalog.path")

	cmd.AddCommand(describe)
	return cmd
}
