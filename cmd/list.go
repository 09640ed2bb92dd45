package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dlscope/dlscope/internal/render"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured datasources",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := loadRegistry()
		if err != nil {
			return err
		}
		header, rows := render.Sources(reg)
		return render.Print(os.Stdout, header, rows)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
