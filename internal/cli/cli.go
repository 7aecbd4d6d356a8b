// Package cli defines the vowelpro command tree. Command bodies live behind
// Runner so the tree can be exercised without audio or a scorer.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const binaryName = "vowelpro"

// Remote commands forwarded to a running drill.
const (
	RemoteToggle = "toggle"
	RemoteNext   = "next"
	RemoteStatus = "status"
)

// Options are the persistent flags shared by every command.
type Options struct {
	ConfigPath string
}

// RateArgs are the inputs of the rate command.
type RateArgs struct {
	Path  string
	Vowel string
}

// Runner executes parsed commands.
type Runner interface {
	Drill(ctx context.Context, opts Options) error
	Remote(ctx context.Context, opts Options, command string) error
	Rate(ctx context.Context, opts Options, args RateArgs) error
	Words(ctx context.Context, opts Options, format OutputFormat) error
	Devices(ctx context.Context, opts Options, format OutputFormat) error
	Doctor(ctx context.Context, opts Options) error
	Version(ctx context.Context) error
}

// UsageError marks bad invocations (exit code 2).
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// IsUsage reports whether err came from argument or flag parsing.
func IsUsage(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// NewRootCommand builds the command tree wired to runner.
func NewRootCommand(runner Runner, stdout, stderr io.Writer) *cobra.Command {
	var opts Options

	root := &cobra.Command{
		Use:   binaryName,
		Short: "Vowel pronunciation drill",
		Long: `vowelpro - practice English vowels against a pronunciation scorer.

Running without a command starts the interactive drill. While a drill is
running, toggle/next/status drive it from another terminal or a hotkey.

Examples:
  vowelpro                       # start the drill
  vowelpro toggle                # start or stop recording in the running drill
  vowelpro rate take.wav --vowel ae
  vowelpro words --output json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &UsageError{Err: fmt.Errorf("unknown command %q for %q", args[0], binaryName)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runner.Drill(cmd.Context(), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path (default $VOWELPRO_CONFIG or $XDG_CONFIG_HOME/vowelpro/config.jsonc)")

	root.AddCommand(
		&cobra.Command{
			Use:   "drill",
			Short: "Start the interactive drill",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runner.Drill(cmd.Context(), opts)
			},
		},
		remoteCommand(runner, &opts, RemoteToggle, "Start or stop recording in the running drill"),
		remoteCommand(runner, &opts, RemoteNext, "Show a new word in the running drill"),
		remoteCommand(runner, &opts, RemoteStatus, "Print the running drill's state"),
		rateCommand(runner, &opts),
		listCommand("words", "List the drill vowels and their words", func(ctx context.Context, format OutputFormat) error {
			return runner.Words(ctx, opts, format)
		}),
		listCommand("devices", "List audio input devices", func(ctx context.Context, format OutputFormat) error {
			return runner.Devices(ctx, opts, format)
		}),
		&cobra.Command{
			Use:   "doctor",
			Short: "Check configuration, audio, and scorer reachability",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runner.Doctor(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runner.Version(cmd.Context())
			},
		},
	)

	return root
}

func remoteCommand(runner Runner, opts *Options, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runner.Remote(cmd.Context(), *opts, name)
		},
	}
}

func rateCommand(runner Runner, opts *Options) *cobra.Command {
	var vowel string
	cmd := &cobra.Command{
		Use:   "rate FILE",
		Short: "Submit an existing WAV recording for a vowel",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			vowel = strings.TrimSpace(vowel)
			if vowel == "" {
				return &UsageError{Err: errors.New("--vowel is required")}
			}
			return runner.Rate(cmd.Context(), *opts, RateArgs{Path: args[0], Vowel: vowel})
		},
	}
	cmd.Flags().StringVar(&vowel, "vowel", "", "vowel id the recording targets (see 'vowelpro words')")
	return cmd
}

func listCommand(name, short string, run func(context.Context, OutputFormat) error) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := ParseOutputFormat(output)
			if err != nil {
				return &UsageError{Err: err}
			}
			return run(cmd.Context(), format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(FormatTable), "output format (table, yaml, json)")
	return cmd
}

// Execute runs the tree for args. Usage errors are returned as *UsageError.
func Execute(ctx context.Context, runner Runner, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(runner, stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
