// Package app wires the drill runtime and command bodies behind the
// command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rbright/vowelpro/internal/cli"
	"github.com/rbright/vowelpro/internal/config"
	"github.com/rbright/vowelpro/internal/logging"
)

// exitCode ends a command with a status and no further output.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// Runner executes commands against real audio, scorer, and IPC.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger

	// ClearScreen redraws the drill in place instead of appending frames.
	ClearScreen bool
}

// Execute runs args and returns the process exit code: 0 ok, 1 runtime
// failure, 2 usage error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin, ClearScreen: isTerminal(os.Stdout)}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	err := cli.Execute(ctx, r, args, r.Stdout, r.Stderr)
	if err == nil {
		return 0
	}

	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	if cli.IsUsage(err) {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		fmt.Fprintln(r.Stderr, "Run 'vowelpro --help' for usage.")
		return 2
	}
	fmt.Fprintf(r.Stderr, "error: %v\n", err)
	return 1
}

// env is the per-command runtime: loaded config and a logger.
type env struct {
	loaded config.Loaded
	logger *slog.Logger
	close  func()
}

func (e env) config() config.Config { return e.loaded.Config }

// setup loads config, prints its warnings, and opens the log file.
func (r Runner) setup(opts cli.Options, command string) (env, error) {
	loaded, err := config.Load(opts.ConfigPath)
	if err != nil {
		return env{}, err
	}

	logger := r.Logger
	closeLog := func() {}
	logPath := ""
	if logger == nil {
		runtime, err := logging.New(loaded.Config.Log)
		if err != nil {
			return env{}, fmt.Errorf("setup logging: %w", err)
		}
		logger = runtime.Logger
		logPath = runtime.Path
		closeLog = func() { _ = runtime.Close() }
	}

	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if loaded.Exists {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", command,
		"config", loaded.Path,
		"log", logPath,
	)
	return env{loaded: loaded, logger: logger, close: closeLog}, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
