// Package main implements the journal CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/writemodel"
	"github.com/bullet-productivity/journal/internal/contracts"
	"github.com/bullet-productivity/journal/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "journal",
	Short:        "Bullet journal: notes, todos and logged work sessions",
	SilenceUsage: true,
}

var configPath string

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default journal.toml)")
}

// withJournal opens the configured event log, replays it and runs fn.
func withJournal(cmd *cobra.Command, fn func(j *journal.Journal) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	j, err := journal.Start(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(j)
}

// execute runs c and turns a write-model rejection into an error.
func execute(cmd *cobra.Command, j *journal.Journal, c contracts.Command) (writemodel.Outcome, error) {
	return executeIn(cmd.Context(), cmd, j, c)
}

func executeIn(ctx context.Context, cmd *cobra.Command, j *journal.Journal, c contracts.Command) (writemodel.Outcome, error) {
	outcome, err := j.Execute(ctx, c)
	if err != nil {
		return outcome, err
	}
	if outcome.Notice.Rejected() {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(fmt.Sprintf("%s: %s", c.Kind(), outcome.Notice)))
		return outcome, fmt.Errorf("%s rejected: %s", c.Kind(), outcome.Notice)
	}
	return outcome, nil
}

func meta() contracts.CommandMeta {
	return contracts.CommandMeta{At: now()}
}

func header(cmd *cobra.Command, title string) {
	fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(title))
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)", raw)
}

func formatTime(t time.Time) string {
	return t.Local().Format("Mon 2 Jan 2006 15:04")
}
