package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/dlscope/dlscope/internal/datasource"
	"github.com/dlscope/dlscope/internal/render"
)

var (
	fetchIndex    int
	fetchRandom   bool
	fetchSnapshot bool
	fetchOutput   string

	fetchCmd = &cobra.Command{
		Use:   "fetch <source-id>",
		Short: "Fetch one datapoint from a datasource",
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

			req := datasource.Default()
			switch {
			case cmd.Flags().Changed("index"):
				req = datasource.ByIndex(fetchIndex)
			case fetchRandom:
				req = datasource.Random()
			case fetchSnapshot:
				req = datasource.Snapshot()
			}

			ctx := cmd.Context()
			if err := src.Prepare(ctx); err != nil {
				return err
			}
			defer func() {
				if err := src.Unprepare(); err != nil {
					log.WithError(err).Warn("unprepare failed")
				}
			}()

			if err := src.Fetch(ctx, req); err != nil {
				return err
			}
			meta, err := src.Metadata()
			if err != nil {
				return err
			}
			if err := render.Print(os.Stdout, nil, render.Metadata(meta)); err != nil {
				return err
			}

			if fetchOutput != "" {
				dp, err := src.Data()
				if err != nil {
					return err
				}
				if err := os.WriteFile(fetchOutput, dp.Bytes, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", fetchOutput, err)
				}
				log.WithField("path", fetchOutput).WithField("bytes", len(dp.Bytes)).
					Info("datapoint written")
			}
			return nil
		},
	}
)

func init() {
	fetchCmd.Flags().IntVar(&fetchIndex, "index", 0, "Fetch the element at this index")
	fetchCmd.Flags().BoolVar(&fetchRandom, "random", false, "Fetch a random element")
	fetchCmd.Flags().BoolVar(&fetchSnapshot, "snapshot", false, "Fetch a fresh snapshot")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write the datapoint bytes to this file")
	rootCmd.AddCommand(fetchCmd)
}
