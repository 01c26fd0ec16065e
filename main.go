package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"noisemask/cmd"
	"noisemask/internal/log"
	"noisemask/internal/tui"
	"noisemask/pkg/build"
)

// main is the entry point for noisemask.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load the config file
//   - Configure logging
//
// 2. Run Phase:
//   - Record or reuse the ambient sample and compute the noise parameters
//   - Play the mask and follow the system volume until interrupted
//
// 3. Shutdown Phase:
//   - SIGINT/SIGTERM cancel the run context
//   - The synth is stopped exactly once and the program exits 0
func main() {
	os.Exit(run())
}

func run() int {
	// ==================== STARTUP PHASE ====================

	// Development builds have no ldflags; keep the defaults.
	if err := build.Initialize(); err != nil {
		log.Debugf("build info: %v", err)
	}

	config, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	// Nothing to run, e.g. --help or --version.
	if config.Command == "" {
		return 0
	}

	if !log.SetLevelString(config.LogLevel) {
		log.Warnf("Unknown log level %q, using %s", config.LogLevel, log.GetLevel())
	}
	log.Debugf("%s %s", build.GetBuildFlags().Name, build.GetBuildFlags())

	// ==================== RUN PHASE ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cmd.NewApp(config).Run(ctx)

	// ==================== SHUTDOWN PHASE ====================

	switch {
	case err == nil:
		if ctx.Err() != nil {
			log.Infof("Exiting gracefully...")
		}
		return 0
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		log.Infof("Exiting gracefully...")
		return 0
	case errors.Is(err, tui.ErrCancelled):
		return 0
	default:
		log.Errorf("%v", err)
		return 1
	}
}
