package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/contracts"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runCategoryList,
}

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd)
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		if _, err := execute(cmd, j, contracts.AddCategory{CommandMeta: meta(), Name: args[0]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added category %s\n", args[0])
		return nil
	})
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	return withJournal(cmd, func(j *journal.Journal) error {
		var categories []string
		j.View(func(p *readmodel.Projection) { categories = p.Categories() })
		header(cmd, "Categories")
		for _, name := range categories {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	})
}
