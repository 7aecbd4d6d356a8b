package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rbright/vowelpro/internal/audio"
	"github.com/rbright/vowelpro/internal/capture"
	"github.com/rbright/vowelpro/internal/cli"
	"github.com/rbright/vowelpro/internal/config"
	"github.com/rbright/vowelpro/internal/doctor"
	"github.com/rbright/vowelpro/internal/ipc"
	"github.com/rbright/vowelpro/internal/rating"
	"github.com/rbright/vowelpro/internal/recorder"
	"github.com/rbright/vowelpro/internal/trial"
	"github.com/rbright/vowelpro/internal/version"
)

const (
	// maxRateFileBytes bounds uploads from the rate command.
	maxRateFileBytes = 1_000_000

	forwardTimeout = 220 * time.Millisecond
)

var errNotRunning = errors.New("no running vowelpro drill")

func (r Runner) Version(context.Context) error {
	fmt.Fprintln(r.Stdout, version.String())
	return nil
}

type wordRow struct {
	ID     string   `json:"id" yaml:"id"`
	Symbol string   `json:"symbol" yaml:"symbol"`
	Words  []string `json:"words" yaml:"words"`
}

func (r Runner) Words(_ context.Context, _ cli.Options, format cli.OutputFormat) error {
	corpus := trial.DefaultCorpus()
	rows := make([]wordRow, 0, len(corpus))
	table := cli.Table{Header: []string{"ID", "IPA", "WORDS"}}
	for _, v := range corpus {
		symbol := trial.Trial{VowelID: v.ID, IPA: v.IPA}.Symbol()
		rows = append(rows, wordRow{ID: v.ID, Symbol: symbol, Words: v.Words})
		table.Rows = append(table.Rows, []string{v.ID, "/" + symbol + "/", strings.Join(v.Words, ", ")})
	}
	return cli.Output(r.Stdout, format, rows, table)
}

func (r Runner) Devices(ctx context.Context, _ cli.Options, format cli.OutputFormat) error {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stderr, "no audio devices found")
		return exitCode(1)
	}

	table := cli.Table{Header: []string{"", "ID", "DESCRIPTION", "STATE", "AVAILABLE", "MUTED"}}
	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		table.Rows = append(table.Rows, []string{
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		})
	}
	return cli.Output(r.Stdout, format, devices, table)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (r Runner) Doctor(ctx context.Context, opts cli.Options) error {
	e, err := r.setup(opts, "doctor")
	if err != nil {
		return err
	}
	defer e.close()

	report := doctor.Run(ctx, e.loaded)
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return exitCode(1)
	}
	return nil
}

// Remote forwards a command to the running drill and prints its state.
func (r Runner) Remote(ctx context.Context, _ cli.Options, command string) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	if ipc.IsNotRunning(err) {
		if command == cli.RemoteStatus {
			fmt.Fprintln(r.Stdout, "not running")
			return nil
		}
		return errNotRunning
	}
	if err != nil {
		return fmt.Errorf("forward command %q: %w", command, err)
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}

	printResponse(r.Stdout, resp)
	return nil
}

func printResponse(w io.Writer, resp ipc.Response) {
	fmt.Fprintln(w, resp.State)
	if resp.Word != "" {
		fmt.Fprintf(w, "word: %s /%s/ (%s)\n", resp.Word, resp.IPA, resp.Vowel)
	}
	if resp.Score != nil {
		fmt.Fprintf(w, "score: %s %s\n", rating.FormatScore(*resp.Score), resp.Message)
	}
	if resp.Error != "" {
		fmt.Fprintf(w, "error: %s\n", resp.Error)
	}
}

// Rate submits an existing recording for a vowel, the way the drill submits
// a fresh take.
func (r Runner) Rate(ctx context.Context, opts cli.Options, args cli.RateArgs) error {
	vowel, ok := trial.DefaultCorpus().Lookup(args.Vowel)
	if !ok {
		return &cli.UsageError{Err: fmt.Errorf("unknown vowel %q (see 'vowelpro words')", args.Vowel)}
	}

	artifact, err := readRecording(args.Path)
	if err != nil {
		return err
	}

	e, err := r.setup(opts, "rate")
	if err != nil {
		return err
	}
	defer e.close()

	t := trial.Trial{VowelID: vowel.ID, IPA: vowel.IPA}
	outcome := rating.NewClient(scorerConfig(e.config()), e.logger).Submit(ctx, artifact, t)
	if !outcome.OK() {
		return errors.New(outcome.Message())
	}

	fmt.Fprintf(r.Stdout, "%s %s\n", rating.FormatScore(outcome.Score), rating.Feedback(outcome.Score))
	if hint := rating.Hint(outcome.Dimensions); hint != "" {
		fmt.Fprintln(r.Stdout, hint)
	}
	return nil
}

func readRecording(path string) (capture.Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return capture.Artifact{}, fmt.Errorf("open recording: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return capture.Artifact{}, fmt.Errorf("stat recording: %w", err)
	}
	if stat.Size() > maxRateFileBytes {
		return capture.Artifact{}, fmt.Errorf("recording %q is %d bytes; the limit is %d", path, stat.Size(), maxRateFileBytes)
	}

	info, err := recorder.Inspect(file)
	if err != nil {
		return capture.Artifact{}, fmt.Errorf("recording %q: %w", path, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return capture.Artifact{}, fmt.Errorf("rewind recording: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return capture.Artifact{}, fmt.Errorf("read recording: %w", err)
	}

	return capture.Artifact{
		Data:      data,
		MIMEType:  "audio/wav",
		Format:    capture.Format{SampleRate: info.SampleRate, Channels: info.Channels},
		Duration:  info.Duration,
		StoppedAt: stat.ModTime(),
	}, nil
}

func scorerConfig(cfg config.Config) rating.Config {
	return rating.Config{
		BaseURL:  cfg.Scorer.URL,
		RatePath: cfg.Scorer.RatePath,
		Timeout:  cfg.Scorer.Timeout(),
		Sex:      cfg.Speaker.Category,
	}
}
