package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"formc/internal/config"
	"formc/internal/observ"
	"formc/internal/prof"
	"formc/internal/trace"
)

// session is the state shared by commands that touch form files: resolved
// configuration, logger, tracer and profiling.
type session struct {
	cfg     config.Config
	logger  *log.Logger
	tracer  trace.Tracer
	color   bool
	quiet   bool
	verbose bool
	timings bool
	timer   *observ.Timer
	cleanup []func() error
}

// startSession reads the global flags, loads formc.toml and attaches logger
// and tracer to the command context. Callers must defer s.close.
func startSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := readColorMode(colorFlag)
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	color.NoColor = !useColor

	level := log.InfoLevel
	switch {
	case verbose:
		level = log.DebugLevel
	case quiet:
		level = log.WarnLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	var cfg config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", wdErr)
		}
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		color:   useColor,
		quiet:   quiet,
		verbose: verbose,
		timings: timings,
	}
	if timings {
		s.timer = observ.NewTimer()
	}

	cmd.SetContext(withLogger(cmd.Context(), logger))

	tracer, traceCleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return nil, err
	}
	s.tracer = tracer
	s.cleanup = append(s.cleanup, traceCleanup)

	profOpts, err := readProfileOptions(cmd)
	if err != nil {
		s.close()
		return nil, err
	}
	profile, err := prof.Start(profOpts)
	if err != nil {
		s.close()
		return nil, err
	}
	s.cleanup = append(s.cleanup, profile.Stop)
	return s, nil
}

// close runs cleanups in reverse order and logs their failures.
func (s *session) close() {
	var errs []error
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanup = nil
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("cleanup failed", "err", err)
	}
}

func readProfileOptions(cmd *cobra.Command) (prof.Options, error) {
	flags := cmd.Root().PersistentFlags()
	cpu, err := flags.GetString("cpuprofile")
	if err != nil {
		return prof.Options{}, fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	mem, err := flags.GetString("memprofile")
	if err != nil {
		return prof.Options{}, fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	rt, err := flags.GetString("runtime-trace")
	if err != nil {
		return prof.Options{}, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return prof.Options{CPU: cpu, Mem: mem, Runtime: rt}, nil
}

func readColorMode(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}
