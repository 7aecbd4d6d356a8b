package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/vowelpro/internal/audio"
	"github.com/rbright/vowelpro/internal/capture"
	"github.com/rbright/vowelpro/internal/cli"
	"github.com/rbright/vowelpro/internal/config"
	"github.com/rbright/vowelpro/internal/ipc"
	"github.com/rbright/vowelpro/internal/logging"
	"github.com/rbright/vowelpro/internal/rating"
	"github.com/rbright/vowelpro/internal/recorder"
	"github.com/rbright/vowelpro/internal/session"
	"github.com/rbright/vowelpro/internal/terminal"
	"github.com/rbright/vowelpro/internal/trial"
)

// Drill owns the runtime socket and runs the interactive session until the
// user quits or ctx ends.
func (r Runner) Drill(ctx context.Context, opts cli.Options) error {
	e, err := r.setup(opts, "drill")
	if err != nil {
		return err
	}
	defer e.close()
	cfg := e.config()
	logger := e.logger

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		return fmt.Errorf("%w; use 'vowelpro toggle' or 'vowelpro next' to drive it", err)
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	captureSession := newCaptureSession(cfg, logger)
	defer func() { _ = captureSession.Close() }()

	selector, err := trial.NewSelector(trial.DefaultCorpus(), nil)
	if err != nil {
		return err
	}

	var controllerOpts []session.Option
	if cfg.Audio.Cues {
		cueCtx, stopCues := context.WithCancel(ctx)
		defer stopCues()
		controllerOpts = append(controllerOpts, session.WithCues(audio.NewCuePlayer(cueCtx, logger)))
	}
	if cfg.Debug.AudioDump {
		controllerOpts = append(controllerOpts, session.WithArtifactSink(dumpArtifacts(logger)))
	}

	view := terminal.NewView(r.Stdout, terminal.NewStyles(terminal.DefaultTheme), r.ClearScreen)
	controller := session.NewController(
		logger,
		captureSession,
		rating.NewClient(scorerConfig(cfg), logger),
		selector,
		view,
		controllerOpts...,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(groupCtx)
	defer stop()

	var initErr error
	initDone := make(chan struct{})
	group.Go(func() error {
		defer close(initDone)
		initErr = controller.Initialize(runCtx)
		return nil
	})
	group.Go(func() error { return controller.Run(runCtx) })
	group.Go(func() error { return ipc.Serve(runCtx, listener, controller) })
	group.Go(func() error {
		defer stop()
		select {
		case <-initDone:
		case <-runCtx.Done():
			return nil
		}
		if r.Stdin == nil {
			<-runCtx.Done()
			return nil
		}
		return terminal.ReadKeys(runCtx, r.Stdin, controller)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	if initErr != nil {
		return fmt.Errorf("initialize audio: %w", initErr)
	}
	return nil
}

func newCaptureSession(cfg config.Config, logger *slog.Logger) *capture.Session {
	constraints := capture.RawConstraints(cfg.Audio.SampleRate)
	constraints.Input = cfg.Audio.Input
	constraints.Fallback = cfg.Audio.Fallback

	opts := []capture.Option{capture.WithLogger(logger)}
	if timeout := cfg.Audio.AcquireTimeout(); timeout > 0 {
		opts = append(opts, capture.WithAcquireTimeout(timeout))
	}

	encoders := func(f capture.Format) capture.Encoder {
		return recorder.New(f.SampleRate, f.Channels)
	}
	return capture.NewSession(audio.NewHost(logger), encoders, constraints, opts...)
}

// dumpArtifacts writes every finalized recording under state/vowelpro/debug.
func dumpArtifacts(logger *slog.Logger) session.ArtifactSink {
	return func(artifact capture.Artifact, t trial.Trial) {
		path, err := writeDebugArtifact(artifact, t)
		if err != nil {
			logger.Warn("debug audio dump failed", "error", err.Error())
			return
		}
		logger.Debug("debug audio written", "path", path, "bytes", len(artifact.Data))
	}
}

func writeDebugArtifact(artifact capture.Artifact, t trial.Trial) (string, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return "", err
	}
	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	stamp := artifact.StoppedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	name := fmt.Sprintf("audio-%s-%s.wav", stamp.Format("20060102-150405.000"), safeName(t.VowelID))
	path := filepath.Join(debugDir, name)
	if err := os.WriteFile(path, artifact.Data, 0o600); err != nil {
		return "", fmt.Errorf("write debug audio %q: %w", path, err)
	}
	return path, nil
}

// safeName keeps vowel ids like "^" out of file names.
func safeName(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, '_', r+('a'-'A'))
		default:
			out = append(out, 'x')
		}
	}
	return string(out)
}
