package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "synphora",
		Short: "Streaming writing assistant",
		Long: `synphora is a writing assistant that evaluates articles and drafts
titles and introductions for them, streaming its work as events.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(flags),
		newRunCmd(flags),
		newMCPCmd(flags),
		newArtifactsCmd(flags),
	)
	return cmd
}

// load reads the configuration and applies flag overrides.
func (f *rootFlags) load() (*Config, error) {
	cfg, err := LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}
