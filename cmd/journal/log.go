package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/contracts"
)

// The open session lives only in memory, so start and stop happen inside one
// invocation.
var logCmd = &cobra.Command{
	Use:   "log <guid>",
	Short: "Log a work session on a todo until interrupted",
	Long: `Log a work session on a todo.

The session starts immediately and stops on Ctrl-C, or after --for has
elapsed. The recorded duration is appended to the journal as a task.`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

var logFor time.Duration

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().DurationVar(&logFor, "for", 0, "Stop automatically after this long")
}

func runLog(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		if _, err := execute(cmd, j, contracts.StartLog{CommandMeta: meta(), GUID: args[0]}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("logging "+args[0]+", Ctrl-C to stop"))

		var timeout <-chan time.Time
		if logFor > 0 {
			timer := time.NewTimer(logFor)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-cmd.Context().Done():
		case <-timeout:
		}

		// Ctrl-C cancels the command context; the stop must still be written.
		stopCtx := context.WithoutCancel(cmd.Context())
		outcome, err := executeIn(stopCtx, cmd, j, contracts.StopLog{CommandMeta: meta()})
		if err != nil {
			return err
		}
		logged, ok := outcome.Event.(contracts.TaskLogged)
		if !ok {
			return fmt.Errorf("unexpected outcome %T", outcome.Event)
		}
		d := time.Duration(logged.TaskDelta) * time.Millisecond
		fmt.Fprintf(cmd.OutOrStdout(), "logged %s on %s\n", d.Round(time.Second), logged.GUID)
		return nil
	})
}
