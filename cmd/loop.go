package main

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/dlscope/dlscope/internal/datasource"
	"github.com/dlscope/dlscope/internal/notify"
)

var (
	loopDuration time.Duration
	loopInterval time.Duration
	loopDiff     bool

	loopCmd = &cobra.Command{
		Use:   "loop <source-id>",
		Short: "Run the background acquisition loop on a datasource",
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
			if loopInterval > 0 {
				src.SetLoopInterval(loopInterval)
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

			var (
				mx   sync.Mutex
				prev *datasource.Metadata
			)
			observer := notify.ObserverFunc(func(e notify.Event) {
				meta, err := src.Metadata()
				if err != nil {
					return
				}
				logger := log.WithField("fetch", meta.Describe())
				if loopDiff {
					mx.Lock()
					if prev != nil {
						if patch, err := prev.Diff(meta); err == nil {
							logger = logger.WithField("diff", patch)
						}
					}
					prev = meta
					mx.Unlock()
				}
				logger.Info("datapoint")
			})
			src.Subscribe(observer, datasource.DataChanged)
			defer src.Unsubscribe(observer)

			src.StartLoop(ctx)
			defer src.StopLoop()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			select {
			case <-time.After(loopDuration):
			case <-interrupt:
				log.Info("interrupted")
			case <-ctx.Done():
			}
			return nil
		},
	}
)

func init() {
	loopCmd.Flags().DurationVarP(&loopDuration, "duration", "d", 5*time.Second, "How long to run the loop")
	loopCmd.Flags().DurationVarP(&loopInterval, "interval", "i", 0, "Override the fetch interval")
	loopCmd.Flags().BoolVar(&loopDiff, "diff", false, "Log a JSON diff between consecutive fetches")
	rootCmd.AddCommand(loopCmd)
}
