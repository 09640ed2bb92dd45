package main

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/dlscope/dlscope/internal/datasource"
)

var describeCmd = &cobra.Command{
	Use:   "describe <source-id>",
	Short: "Describe a datasource and its current datapoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := loadRegistry()
		if err != nil {
			return err
		}
		src, err := lookupSource(reg, args[0])
		if err != nil {
			return err
		}

		if err := src.Prepare(cmd.Context()); err != nil {
			return err
		}
		defer func() {
			if err := src.Unprepare(); err != nil {
				log.WithError(err).Warn("unprepare failed")
			}
		}()

		fmt.Println(src.Describe(datasource.DescribeOpts{
			WithIndex: true,
			WithLabel: true,
		}))
		if meta, err := src.Metadata(); err == nil {
			fmt.Println(meta.Describe())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
