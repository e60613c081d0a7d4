/*
Imports every Spine skeleton under an assets directory, resolving its atlas
sprites and bone hierarchy, and optionally keeps re-importing on changes.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-spine/engine"
	"github.com/spaghettifunk/anima-spine/engine/core"
)

func main() {
	configPath := flag.String("config", "", "TOML or YAML config file")
	assetsDir := flag.String("assets", "", "assets directory to import")
	watch := flag.Bool("watch", false, "re-import skeletons when their files change")
	logLevel := flag.String("log-level", "", "debug, info, warn, error or fatal")
	workers := flag.Int("workers", 0, "number of concurrent imports")
	dump := flag.Bool("dump", false, "dump every imported skeleton")
	parents := flag.String("parents", "", "parent resolution: single-pass or two-pass")
	flag.Parse()

	config := engine.DefaultApplicationConfig()
	if *configPath != "" {
		c, err := engine.LoadApplicationConfig(*configPath)
		if err != nil {
			core.LogFatal(err.Error())
		}
		config = c
	}

	// Only flags given on the command line override the config file.
	overrides := engine.ConfigOverrides{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			overrides.AssetsDir = assetsDir
		case "watch":
			overrides.Watch = watch
		case "log-level":
			overrides.LogLevel = logLevel
		case "workers":
			overrides.Workers = workers
		case "dump":
			overrides.Dump = dump
		case "parents":
			overrides.ParentResolution = parents
		}
	})
	if err := config.Resolve(overrides); err != nil {
		core.LogFatal(err.Error())
	}

	e, err := engine.New(config)
	if err != nil {
		core.LogFatal(err.Error())
	}
	if err := e.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	summary := e.ImportAll()
	for path, err := range summary.Failed {
		core.LogError("'%s': %s", path, err)
	}

	if err := e.Run(ctx); err != nil {
		core.LogError(err.Error())
	}
	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}

	if len(summary.Failed) > 0 && !config.Watch {
		os.Exit(1)
	}
}
