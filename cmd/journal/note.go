package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/contracts"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteAdd,
}

var (
	noteAddText     string
	noteAddCategory string
)

var noteTextCmd = &cobra.Command{
	Use:   "text <guid> <text>",
	Short: "Replace a note's text",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteText,
}

var noteCategoryCmd = &cobra.Command{
	Use:   "category <guid> <category>",
	Short: "Move a note to another category",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteCategory,
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE:  runNoteList,
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteTextCmd, noteCategoryCmd, noteListCmd)

	noteAddCmd.Flags().StringVarP(&noteAddText, "text", "t", "", "Note body")
	noteAddCmd.Flags().StringVarP(&noteAddCategory, "category", "c", "", "Category name")
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		outcome, err := execute(cmd, j, contracts.AddNote{
			CommandMeta: meta(),
			Name:        args[0],
			Text:        noteAddText,
			Category:    noteAddCategory,
		})
		if err != nil {
			return err
		}
		added, ok := outcome.Event.(contracts.NoteAdded)
		if !ok {
			return fmt.Errorf("unexpected outcome %T", outcome.Event)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added note %s\n", added.GUID)
		return nil
	})
}

func runNoteText(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		_, err := execute(cmd, j, contracts.UpdateNoteText{CommandMeta: meta(), GUID: args[0], Text: args[1]})
		return err
	})
}

func runNoteCategory(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		_, err := execute(cmd, j, contracts.UpdateNoteCategory{CommandMeta: meta(), GUID: args[0], Category: args[1]})
		return err
	})
}

func runNoteList(cmd *cobra.Command, _ []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		var notes []readmodel.Note
		j.View(func(p *readmodel.Projection) { notes = p.Notes() })
		header(cmd, "Notes")
		out := cmd.OutOrStdout()
		for _, note := range notes {
			fmt.Fprintf(out, "  %s  %s %s\n", mutedStyle.Render(note.GUID), note.Name, mutedStyle.Render(note.Category))
			if note.Text != "" {
				fmt.Fprintf(out, "      %s\n", note.Text)
			}
		}
		return nil
	})
}
