package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subforge/internal/config"
	"subforge/internal/journal"
	"subforge/internal/logging"
	"subforge/internal/mkv"
	"subforge/internal/pipeline"
	"subforge/internal/remux"
	"subforge/internal/subtitle"
	"subforge/internal/trackflags"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			LogDir:  cfg.Paths.LogDir,
			LogFile: "subforge.log",
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// mkvTool builds the container inspector/editor from the configured binaries.
func (c *commandContext) mkvTool() (*mkv.Tool, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return mkv.NewTool(logger).
		WithBinaries(cfg.Tools.MKVMerge, cfg.Tools.MKVPropedit).
		WithTimeout(cfg.ToolTimeout()), nil
}

func (c *commandContext) mutator() (*remux.Mutator, error) {
	tool, err := c.mkvTool()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return remux.NewMutator(logger, tool), nil
}

func (c *commandContext) normalizer() (*trackflags.Normalizer, error) {
	tool, err := c.mkvTool()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return trackflags.NewNormalizer(logger, tool), nil
}

func (c *commandContext) openJournal() (*journal.Journal, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.Paths.JournalPath)
}

// runner assembles the full stage pipeline.
func (c *commandContext) runner(ledger pipeline.Ledger) (*pipeline.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	mutator, err := c.mutator()
	if err != nil {
		return nil, err
	}
	normalizer, err := c.normalizer()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(
		logger,
		subtitle.NewConverter(logger),
		subtitle.NewCleaner(logger),
		subtitle.NewSyncer(logger, cfg.Tools.FFSubsync, cfg.ToolTimeout()),
		mutator,
		normalizer,
		ledger,
	), nil
}

func (c *commandContext) jobOptions() pipeline.Options {
	cfg, err := c.ensureConfig()
	if err != nil {
		return pipeline.DefaultOptions()
	}
	return pipeline.Options{
		Convert:          cfg.Pipeline.Convert,
		Clean:            cfg.Pipeline.Clean,
		Sync:             cfg.Pipeline.Sync,
		KeepSubtitleFile: cfg.Pipeline.KeepSubtitleFile,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
