package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/dlscope/dlscope/internal/config"
	"github.com/dlscope/dlscope/internal/datasource"
	"github.com/dlscope/dlscope/internal/source"
)

const (
	appName    = "dlscope"
	appVersion = "0.1.0"
)

var (
	configFile   string
	profilesFile string
	logLevel     string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Datasource browser for deep-learning inspection",
		Long: `dlscope provides uniform access to heterogeneous datasources
(directories, object stores, databases, cameras, synthetic generators)
with a prepare/fetch/unprepare lifecycle and a background acquisition loop.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetHandler(cli.Default)
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				level = log.InfoLevel
			}
			log.SetLevel(level)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&profilesFile, "profiles", "", "INI profile file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "logLevel", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// defaultPath returns ~/.config/dlscope/<name> when the corresponding flag
// was left empty.
func defaultPath(flag, name string) string {
	if flag != "" {
		return flag
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appName, name)
}

// loadRegistry loads the config and profile files and builds the declared
// sources into a fresh registry.
func loadRegistry() (*config.Config, *datasource.Registry, error) {
	cfg := config.NewConfig()
	if err := cfg.Load(defaultPath(configFile, "config.yaml"), configFile != ""); err != nil {
		return nil, nil, err
	}
	profiles, err := config.LoadProfiles(defaultPath(profilesFile, "profiles.ini"))
	if err != nil {
		return nil, nil, err
	}
	reg := datasource.NewRegistry()
	if err := source.Register(cfg.Dlscope, profiles, reg); err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}

// lookupSource resolves a source id argument against the registry.
func lookupSource(reg *datasource.Registry, id string) (*datasource.Source, error) {
	src, ok := reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown datasource: %s (known: %v)", id, reg.IDs())
	}
	return src, nil
}
