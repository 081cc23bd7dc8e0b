package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"skinsrv/internal/config"
)

// app carries the resolved configuration and logger to subcommands.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	getenv func(string) string

	configPath string
	logLevel   string
	logFormat  string
	artifacts  string
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}
	root := &cobra.Command{
		Use:           "skinsrv",
		Short:         "Skin-lesion classification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml/.yml/.json/.toml)")
	root.PersistentFlags().StringVar(&a.artifacts, "artifacts", "", "Preprocessing artifacts JSON (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults SKINSRV_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: json|console")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load()
	}

	root.AddCommand(a.serveCmd(), a.predictCmd(), a.encodeCmd(), a.artifactsCmd(), a.checkCmd())
	return root
}

// load resolves config in order: file, SKINSRV_* environment, flags, defaults.
func (a *app) load() error {
	var cfg config.Config
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(a.getenv); err != nil {
		return err
	}
	if a.artifacts != "" {
		cfg.Artifacts = a.artifacts
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	cfg.ApplyDefaults()
	if err := cfg.ResolvePaths(config.DirOf(a.configPath)); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(cfg.Log)
	return nil
}
