package session

import (
	"context"

	"github.com/rbright/vowelpro/internal/capture"
	"github.com/rbright/vowelpro/internal/rating"
	"github.com/rbright/vowelpro/internal/trial"
)

// View is the set of display sinks the controller drives. Implementations
// must be safe to call from the controller loop goroutine.
type View interface {
	SetRecordEnabled(bool)
	SetRecordLabel(string)
	SetWord(string)
	SetIPA(string)
	SetScore(string)
	SetMessage(string)
	SetHint(string)
	SetError(string)
}

// noopView preserves controller flow when no view is wired.
type noopView struct{}

func (noopView) SetRecordEnabled(bool) {}
func (noopView) SetRecordLabel(string) {}
func (noopView) SetWord(string)        {}
func (noopView) SetIPA(string)         {}
func (noopView) SetScore(string)       {}
func (noopView) SetMessage(string)     {}
func (noopView) SetHint(string)        {}
func (noopView) SetError(string)       {}

// Capturer is the capture session subset the controller sequences.
type Capturer interface {
	Initialize(context.Context) error
	IsRecording() bool
	Start()
	Stop() (<-chan capture.Result, bool)
}

// Rater scores one recording.
type Rater interface {
	Submit(context.Context, capture.Artifact, trial.Trial) rating.Outcome
}

// RaterFunc adapts a function to the Rater interface.
type RaterFunc func(context.Context, capture.Artifact, trial.Trial) rating.Outcome

func (f RaterFunc) Submit(ctx context.Context, artifact capture.Artifact, t trial.Trial) rating.Outcome {
	return f(ctx, artifact, t)
}

// Selector hands out trials.
type Selector interface {
	Next() trial.Trial
}

// ArtifactSink observes every finalized recording before it is rated.
type ArtifactSink func(capture.Artifact, trial.Trial)

// Cues are audible markers for recording transitions. Started returns once
// its tone has finished so the microphone never hears it.
type Cues interface {
	Started(context.Context)
	Stopped()
	Rated(ok bool)
}
