package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [todo-guid]",
	Short: "List logged work sessions, optionally for one todo",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTasks,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show everything recorded, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runTimeline,
}

var resetDailyCmd = &cobra.Command{
	Use:   "reset-daily",
	Short: "Reopen completed daily todos and make them due now",
	Args:  cobra.NoArgs,
	RunE:  runResetDaily,
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"replay"},
	Short:   "Replay the event log and summarize the projections",
	Args:    cobra.NoArgs,
	RunE:    runStats,
}

func init() {
	rootCmd.AddCommand(tasksCmd, timelineCmd, resetDailyCmd, statsCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		var tasks []readmodel.Task
		j.View(func(p *readmodel.Projection) {
			if len(args) == 1 {
				tasks = p.TasksFor(args[0])
			} else {
				tasks = p.Tasks()
			}
		})

		header(cmd, "Tasks")
		var total time.Duration
		for _, task := range tasks {
			total += task.Duration()
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %-10s %s\n",
				mutedStyle.Render(formatTime(task.Started)), task.Duration().Round(time.Second), task.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  total %s\n", total.Round(time.Second))
		return nil
	})
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		var snap readmodel.Snapshot
		j.View(func(p *readmodel.Projection) { snap = p.Snapshot() })

		names := make(map[string]string, len(snap.Notes)+len(snap.Todos))
		for _, note := range snap.Notes {
			names[note.GUID] = note.Name
		}
		for _, todo := range snap.Todos {
			names[todo.GUID] = todo.Name
		}

		header(cmd, "Timeline")
		for _, entry := range snap.Timeline {
			detail := names[entry.GUID]
			if entry.Kind == readmodel.KindTask && entry.Task >= 0 && entry.Task < len(snap.Tasks) {
				detail = fmt.Sprintf("%s (%s)", detail, snap.Tasks[entry.Task].Duration().Round(time.Second))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %-4s %s\n", mutedStyle.Render(formatTime(entry.At)), entry.Kind, detail)
		}
		return nil
	})
}

func runResetDaily(cmd *cobra.Command, _ []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		reset, err := j.ResetDailyTodos(cmd.Context(), now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %d daily todos\n", reset)
		return nil
	})
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		var stats readmodel.Stats
		j.View(func(p *readmodel.Projection) { stats = p.Stats() })
		header(cmd, "Journal")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  categories  %d\n", stats.Categories)
		fmt.Fprintf(out, "  notes       %d\n", stats.Notes)
		fmt.Fprintf(out, "  todos       %d (%d open)\n", stats.Todos, stats.OpenTodos)
		fmt.Fprintf(out, "  tasks       %d\n", stats.Tasks)
		return nil
	})
}
