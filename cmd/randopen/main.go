// Package main implements randopen, which opens a random file from a
// directory tree with the system's default application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/randopen/internal/config"
	"github.com/taigrr/randopen/internal/types"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "randopen [root]",
		Short: "Open a random file from a directory tree",
		Long: `randopen walks a directory tree, stores the shuffled list of files in a
cache file next to it and opens one of them at random with the system's
default application. Later runs choose from the cache and reshuffle it
instead of walking the tree again.

Without a root argument the directory containing the executable is used.`,
		Example: `randopen ~/Videos
randopen --refresh --dry-run ~/Music`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, args, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML config file")
	pf.StringVar(&opts.cacheName, "cache", config.Default().CacheName, "cache file name inside the root")
	pf.BoolVar(&opts.skipHidden, "skip-hidden", false, "ignore dot-files and dot-directories")
	pf.StringSliceVar(&opts.ignore, "ignore", nil, "glob pattern relative to the root to ignore (repeatable)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "auto", "log format: auto, console, json")

	f := cmd.Flags()
	f.BoolVar(&opts.refresh, "refresh", false, "walk the tree again even if a cache exists")
	f.BoolVar(&opts.dryRun, "dry-run", false, "choose a file and update the cache without opening it")
	f.BoolVar(&opts.wait, "wait", false, "wait for the opened application to exit")
	f.IntVar(&opts.rounds, "rounds", types.DefaultShuffleRounds, "shuffles applied to a freshly walked list")

	cmd.AddCommand(
		newListCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func runPick(cmd *cobra.Command, args []string, opts *options) error {
	svc, err := newServices(cmd, args, opts)
	if err != nil {
		return err
	}

	sel := svc.selector(cmd.OutOrStdout(), opts.refresh, opts.dryRun)
	selection, err := sel.Run(cmd.Context())
	if err != nil {
		return err
	}

	svc.logger.Debug("selection complete",
		"state", selection.State,
		"chosen", selection.Chosen,
		"files", len(selection.Files),
		"opened", selection.Opened,
	)
	return nil
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config [root]",
		Short: "Print the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, opts)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.OutOrStdout(), "# cache: %s\n# self: %s\n", cfg.CachePath(), cfg.SelfPath)
			return nil
		},
	}
}
