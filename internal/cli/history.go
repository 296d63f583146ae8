package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/internal/utils"
	"github.com/leofalp/uigen/providers/history"
)

var errHistoryDisabled = errors.New("run history is disabled; set history.backend to sqlite")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past runs",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryStatsCmd())

	return cmd
}

func openHistory(cmd *cobra.Command) (history.Provider, error) {
	store, err := environmentOf(cmd).historyStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errHistoryDisabled
	}
	return store, nil
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit      int
		failed     bool
		succeeded  bool
		state      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}

			filter := history.Filter{Limit: limit, State: retry.State(state)}
			switch {
			case failed && succeeded:
				return errors.New("--failed and --succeeded are exclusive")
			case failed:
				filter.Succeeded = new(bool)
			case succeeded:
				filter.Succeeded = utils.Ptr(true)
			}

			records, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				for i := range records {
					records[i].Result = nil
				}
				return printJSON(cmd.OutOrStdout(), records)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tCREATED\tSTATE\tATTEMPTS\tCOMPONENTS\tELAPSED\tTASK")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.RunID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.State,
					r.Attempts,
					r.Components(),
					r.Elapsed.Round(time.Millisecond),
					utils.TruncateString(r.Task, 40),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of runs to show")
	cmd.Flags().BoolVar(&failed, "failed", false, "only failed runs")
	cmd.Flags().BoolVar(&succeeded, "succeeded", false, "only successful runs")
	cmd.Flags().StringVar(&state, "state", "", "only runs that ended in this state")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the full report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			record, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize every stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "runs:             %d\n", stats.Runs)
			fmt.Fprintf(out, "success rate:     %.1f%%\n", 100*stats.SuccessRate())
			fmt.Fprintf(out, "average attempts: %.2f\n", stats.AverageAttempts)
			if stats.AverageFixRate != nil {
				fmt.Fprintf(out, "average fix rate: %.2f\n", *stats.AverageFixRate)
			} else {
				fmt.Fprintln(out, "average fix rate: n/a")
			}
			return nil
		},
	}
}
