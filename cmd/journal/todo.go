package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/contracts"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage todos",
}

var todoAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoAdd,
}

var (
	todoAddText     string
	todoAddCategory string
	todoAddDue      string
)

var todoCompleteCmd = &cobra.Command{
	Use:   "complete <guid>",
	Short: "Mark a todo complete",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoComplete,
}

var todoReopenCmd = &cobra.Command{
	Use:     "reopen <guid>",
	Aliases: []string{"incomplete"},
	Short:   "Mark a todo incomplete",
	Args:    cobra.ExactArgs(1),
	RunE:    runTodoReopen,
}

var todoDueCmd = &cobra.Command{
	Use:   "due <guid> <date>",
	Short: "Set a todo's due date",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoDue,
}

var todoScheduleCmd = &cobra.Command{
	Use:   "schedule <guid> <Never|Daily>",
	Short: "Set how often a todo recurs",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoSchedule,
}

var todoTitleCmd = &cobra.Command{
	Use:   "title <guid> <name>",
	Short: "Rename a todo",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoTitle,
}

var todoDescribeCmd = &cobra.Command{
	Use:   "describe <guid> <text>",
	Short: "Replace a todo's description",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoDescribe,
}

var todoCategoryCmd = &cobra.Command{
	Use:   "category <guid> <category>",
	Short: "Move a todo to another category",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoCategory,
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	Args:  cobra.NoArgs,
	RunE:  runTodoList,
}

var todoListOpen bool

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(todoAddCmd, todoCompleteCmd, todoReopenCmd, todoDueCmd, todoScheduleCmd,
		todoTitleCmd, todoDescribeCmd, todoCategoryCmd, todoListCmd)

	todoAddCmd.Flags().StringVarP(&todoAddText, "text", "t", "", "Description")
	todoAddCmd.Flags().StringVarP(&todoAddCategory, "category", "c", "", "Category name")
	todoAddCmd.Flags().StringVarP(&todoAddDue, "due", "d", "", "Due date (YYYY-MM-DD or RFC 3339)")

	todoListCmd.Flags().BoolVar(&todoListOpen, "open", false, "Only show incomplete todos")
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	add := contracts.AddTodo{
		CommandMeta: meta(),
		Name:        args[0],
		Text:        todoAddText,
		Category:    todoAddCategory,
	}
	if todoAddDue != "" {
		due, err := parseDate(todoAddDue)
		if err != nil {
			return err
		}
		add.DueDate = &due
	}

	return withJournal(cmd, func(j *journal.Journal) error {
		outcome, err := execute(cmd, j, add)
		if err != nil {
			return err
		}
		added, ok := outcome.Event.(contracts.TodoAdded)
		if !ok {
			return fmt.Errorf("unexpected outcome %T", outcome.Event)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added todo %s\n", added.GUID)
		return nil
	})
}

func runTodoComplete(cmd *cobra.Command, args []string) error {
	return runTodoCommand(cmd, contracts.MarkTodoComplete{CommandMeta: meta(), GUID: args[0]})
}

func runTodoReopen(cmd *cobra.Command, args []string) error {
	return runTodoCommand(cmd, contracts.MarkTodoIncomplete{CommandMeta: meta(), GUID: args[0]})
}

func runTodoDue(cmd *cobra.Command, args []string) error {
	due, err := parseDate(args[1])
	if err != nil {
		return err
	}
	return runTodoCommand(cmd, contracts.UpdateTodoDueDate{CommandMeta: meta(), GUID: args[0], DueDate: due})
}

func runTodoSchedule(cmd *cobra.Command, args []string) error {
	freq, err := parseFrequency(args[1])
	if err != nil {
		return err
	}
	return runTodoCommand(cmd, contracts.ScheduleTodo{CommandMeta: meta(), GUID: args[0], Scheduled: freq})
}

func runTodoTitle(cmd *cobra.Command, args []string) error {
	return runTodoCommand(cmd, contracts.ChangeTodoTitle{CommandMeta: meta(), GUID: args[0], Name: args[1]})
}

func runTodoDescribe(cmd *cobra.Command, args []string) error {
	return runTodoCommand(cmd, contracts.ChangeTodoDescription{CommandMeta: meta(), GUID: args[0], Text: args[1]})
}

func runTodoCategory(cmd *cobra.Command, args []string) error {
	return runTodoCommand(cmd, contracts.ChangeTodoCategory{CommandMeta: meta(), GUID: args[0], Category: args[1]})
}

func runTodoCommand(cmd *cobra.Command, c contracts.Command) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		_, err := execute(cmd, j, c)
		return err
	})
}

func runTodoList(cmd *cobra.Command, _ []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		var todos []readmodel.Todo
		j.View(func(p *readmodel.Projection) {
			if todoListOpen {
				todos = p.OpenTodos()
			} else {
				todos = p.Todos()
			}
		})
		header(cmd, "Todos")
		for _, todo := range todos {
			fmt.Fprintln(cmd.OutOrStdout(), formatTodo(todo))
		}
		return nil
	})
}

func formatTodo(todo readmodel.Todo) string {
	mark := "[ ]"
	name := todo.Name
	if todo.Complete {
		mark = "[x]"
		name = doneStyle.Render(name)
	}
	line := fmt.Sprintf("  %s %s  %s", mark, mutedStyle.Render(todo.GUID), name)

	var details []string
	if todo.Category != "" {
		details = append(details, todo.Category)
	}
	if todo.DueDate != nil {
		details = append(details, "due "+formatTime(*todo.DueDate))
	}
	if todo.Scheduled == contracts.FrequencyDaily {
		details = append(details, "daily")
	}
	if len(details) > 0 {
		line += " " + mutedStyle.Render("("+strings.Join(details, ", ")+")")
	}
	return line
}

func parseFrequency(raw string) (contracts.Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "never":
		return contracts.FrequencyNever, nil
	case "daily":
		return contracts.FrequencyDaily, nil
	default:
		return "", fmt.Errorf("unknown frequency %q (want Never or Daily)", raw)
	}
}
