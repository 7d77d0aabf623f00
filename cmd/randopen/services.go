package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/taigrr/randopen/internal/cache"
	"github.com/taigrr/randopen/internal/config"
	"github.com/taigrr/randopen/internal/filesystem"
	"github.com/taigrr/randopen/internal/logging"
	"github.com/taigrr/randopen/internal/opener"
	"github.com/taigrr/randopen/internal/pathfilter"
	"github.com/taigrr/randopen/internal/selector"
)

// options holds the raw flag values shared by all commands.
type options struct {
	configFile string
	cacheName  string
	skipHidden bool
	ignore     []string
	logLevel   string
	logFormat  string

	refresh bool
	dryRun  bool
	wait    bool
	rounds  int
}

// services bundles everything a command needs for one root.
type services struct {
	cfg    config.Config
	logger *slog.Logger
	filter *pathfilter.PathFilter
	files  *filesystem.Service
	store  *cache.Store
	opener opener.Opener
}

// loadConfig layers defaults, the optional YAML file and explicitly set flags.
func loadConfig(cmd *cobra.Command, args []string, opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		cfg, err = config.Load(opts.configFile)
		if err != nil {
			return cfg, err
		}
	}

	if len(args) > 0 {
		cfg.Root = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("cache") {
		cfg.CacheName = opts.cacheName
	}
	if flags.Changed("skip-hidden") {
		cfg.SkipHidden = opts.skipHidden
	}
	if flags.Changed("ignore") {
		cfg.IgnoredPatterns = append(cfg.IgnoredPatterns, opts.ignore...)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("wait") {
		cfg.Wait = opts.wait
	}
	if flags.Changed("rounds") {
		cfg.ShuffleRounds = opts.rounds
	}

	if err := cfg.Resolve(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newServices(cmd *cobra.Command, args []string, opts *options) (*services, error) {
	cfg, err := loadConfig(cmd, args, opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return servicesFromConfig(cfg, logger), nil
}

func servicesFromConfig(cfg config.Config, logger *slog.Logger) *services {
	pf := pathfilter.New(cfg.FilterConfig())
	return &services{
		cfg:    cfg,
		logger: logger,
		filter: pf,
		files:  filesystem.New(cfg.Root, pf, logger),
		store:  cache.New(cfg.CachePath()),
		opener: opener.New(cfg.Wait),
	}
}

func (s *services) selector(out io.Writer, refresh, dryRun bool) *selector.Selector {
	return selector.New(selector.Config{
		Files:         s.files,
		Store:         s.store,
		Filter:        s.filter,
		Opener:        s.opener,
		Out:           out,
		Logger:        s.logger,
		ShuffleRounds: s.cfg.ShuffleRounds,
		Refresh:       refresh,
		DryRun:        dryRun,
	})
}
