// Package session runs the drill: it sequences trial selection, capture, and
// rating, and projects every outcome onto the view.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/vowelpro/internal/capture"
	"github.com/rbright/vowelpro/internal/fsm"
	"github.com/rbright/vowelpro/internal/ipc"
	"github.com/rbright/vowelpro/internal/rating"
	"github.com/rbright/vowelpro/internal/trial"
)

const (
	LabelRecord = "Record"
	LabelStop   = "Stop"

	MessagePermission  = "Error initializing audio recording"
	MessageUnsupported = "Your platform is not supported"
	MessageNotStarted  = "Recording did not start, try again"
)

type intentKind int

const (
	intentToggle intentKind = iota + 1
	intentNext
)

type intent struct {
	kind  intentKind
	reply chan Snapshot
}

// completion is one finished stop/submit chain posted back to the loop.
type completion struct {
	trial    trial.Trial
	artifact capture.Artifact
	outcome  rating.Outcome
	started  time.Time
}

// Result summarizes one rated recording.
type Result struct {
	Trial      trial.Trial
	Outcome    rating.Outcome
	Bytes      int
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is the controller's visible state.
type Snapshot struct {
	State   fsm.State
	Trial   trial.Trial
	Score   *float64
	Message string
	Error   string
}

// Controller owns the drill state machine. Intents and async completions are
// applied one at a time by Run.
type Controller struct {
	logger   *slog.Logger
	capture  Capturer
	rater    Rater
	selector Selector
	view     View
	sink     ArtifactSink
	cues     Cues

	mu       sync.RWMutex
	state    fsm.State
	trial    trial.Trial
	score    *float64
	message  string
	errText  string
	recStart time.Time

	intents     chan intent
	completions chan completion
	inflight    sync.WaitGroup
	done        chan struct{}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithArtifactSink registers an observer for every finalized recording.
func WithArtifactSink(sink ArtifactSink) Option {
	return func(c *Controller) { c.sink = sink }
}

// WithCues plays cues on recording transitions.
func WithCues(cues Cues) Option {
	return func(c *Controller) { c.cues = cues }
}

// NewController constructs a controller and shows the first trial. Recording
// stays disabled until Initialize succeeds.
func NewController(
	logger *slog.Logger,
	capturer Capturer,
	rater Rater,
	selector Selector,
	view View,
	opts ...Option,
) *Controller {
	if view == nil {
		view = noopView{}
	}
	c := &Controller{
		logger:      logger,
		capture:     capturer,
		rater:       rater,
		selector:    selector,
		view:        view,
		state:       fsm.StateInitializing,
		intents:     make(chan intent, 8),
		completions: make(chan completion, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.syncRecordEnabled()
	c.view.SetRecordLabel(LabelRecord)
	c.showTrial(c.selector.Next())
	return c
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{State: c.state, Trial: c.trial, Message: c.message, Error: c.errText}
	if c.score != nil {
		score := *c.score
		snap.Score = &score
	}
	return snap
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Initialize acquires the microphone. Failure is terminal: the error surface
// names the cause and recording never becomes available.
func (c *Controller) Initialize(ctx context.Context) error {
	if c.capture == nil {
		return c.failInit(capture.ErrPlatformUnsupported)
	}
	if err := c.capture.Initialize(ctx); err != nil {
		return c.failInit(err)
	}
	if err := c.transition(fsm.EventReady); err != nil {
		return err
	}
	c.view.SetRecordLabel(LabelRecord)
	c.syncRecordEnabled()
	c.logInfo("capture ready")
	return nil
}

func (c *Controller) failInit(err error) error {
	message := MessagePermission
	if errors.Is(err, capture.ErrPlatformUnsupported) {
		message = MessageUnsupported
	}
	if tErr := c.transition(fsm.EventUnavailable); tErr != nil {
		return errors.Join(err, tErr)
	}

	c.setSurfaces(nil, "", message)
	c.syncRecordEnabled()
	if c.logger != nil {
		c.logger.Error("capture unavailable", "error", err.Error(), "message", message)
	}
	return err
}

// Run applies intents and completions until ctx is cancelled, then waits for
// any in-flight submission to unwind.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-c.intents:
			switch in.kind {
			case intentToggle:
				c.toggle(ctx)
			case intentNext:
				c.next()
			}
			if in.reply != nil {
				in.reply <- c.Snapshot()
			}
		case done := <-c.completions:
			c.finish(done)
		}
	}
}

// ToggleRecord starts or stops a recording.
func (c *Controller) ToggleRecord() {
	c.post(intent{kind: intentToggle})
}

// NewTrial replaces the current trial.
func (c *Controller) NewTrial() {
	c.post(intent{kind: intentNext})
}

func (c *Controller) post(in intent) bool {
	select {
	case c.intents <- in:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) toggle(ctx context.Context) {
	state := c.State()
	if !fsm.CanRecord(state) {
		c.logDebug("toggle ignored", "state", string(state))
		return
	}
	if state == fsm.StateRecording {
		c.stopRecording(ctx)
		return
	}
	c.startRecording(ctx)
}

// startRecording plays the start cue before arming capture.
func (c *Controller) startRecording(ctx context.Context) {
	c.setSurfaces(nil, "", "")
	if c.cues != nil {
		c.cues.Started(ctx)
	}
	c.capture.Start()
	if !c.capture.IsRecording() {
		c.logWarn("capture did not start")
		c.setSurfaces(nil, "", MessageNotStarted)
		return
	}
	if err := c.transition(fsm.EventStart); err != nil {
		c.logWarn("start transition rejected", "error", err.Error())
		return
	}

	c.mu.Lock()
	c.recStart = time.Now()
	c.mu.Unlock()

	c.view.SetRecordLabel(LabelStop)
	c.syncRecordEnabled()
}

// stopRecording disables the affordance in the same step as entering
// submitting, then finishes the stop/submit chain off-loop.
func (c *Controller) stopRecording(ctx context.Context) {
	if err := c.transition(fsm.EventStop); err != nil {
		c.logWarn("stop transition rejected", "error", err.Error())
		return
	}
	c.syncRecordEnabled()

	c.mu.RLock()
	current, started := c.trial, c.recStart
	c.mu.RUnlock()

	results, ok := c.capture.Stop()
	if c.cues != nil {
		c.cues.Stopped()
	}
	if !ok {
		c.finish(completion{
			trial:   current,
			started: started,
			outcome: failureOutcome(errors.New("capture was not recording")),
		})
		return
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		done := completion{trial: current, started: started}
		res := <-results
		if res.Err != nil {
			done.outcome = failureOutcome(res.Err)
		} else {
			done.artifact = res.Artifact
			if c.sink != nil {
				c.sink(res.Artifact, current)
			}
			done.outcome = c.rater.Submit(ctx, res.Artifact, current)
		}

		select {
		case c.completions <- done:
		case <-ctx.Done():
		}
	}()
}

// finish renders one outcome and re-arms recording.
func (c *Controller) finish(done completion) {
	outcome := done.outcome
	if outcome.OK() {
		score := outcome.Score
		c.setSurfaces(&score, rating.Feedback(score), "")
		c.view.SetHint(rating.Hint(outcome.Dimensions))
	} else {
		c.setSurfaces(nil, "", outcome.Message())
	}

	if err := c.transition(fsm.EventRated); err != nil {
		c.logWarn("rated transition rejected", "error", err.Error())
	}
	c.view.SetRecordLabel(LabelRecord)
	c.syncRecordEnabled()
	if c.cues != nil {
		c.cues.Rated(outcome.OK())
	}

	c.logResult(Result{
		Trial:      done.trial,
		Outcome:    outcome,
		Bytes:      len(done.artifact.Data),
		Duration:   done.artifact.Duration,
		StartedAt:  done.started,
		FinishedAt: time.Now(),
	})
}

// syncRecordEnabled derives the record affordance from the current state.
func (c *Controller) syncRecordEnabled() {
	c.view.SetRecordEnabled(fsm.CanRecord(c.State()))
}

func (c *Controller) next() {
	switch state := c.State(); state {
	case fsm.StateInitializing, fsm.StateUnavailable:
		c.logDebug("new trial ignored", "state", string(state))
		return
	}
	c.showTrial(c.selector.Next())
	c.setSurfaces(nil, "", "")
}

func (c *Controller) showTrial(t trial.Trial) {
	c.mu.Lock()
	c.trial = t
	c.mu.Unlock()

	c.view.SetWord(t.Word)
	c.view.SetIPA(t.Symbol())
}

// setSurfaces replaces score, message, and error together. A nil score
// clears the score surface.
func (c *Controller) setSurfaces(score *float64, message string, errText string) {
	c.mu.Lock()
	c.score = score
	c.message = message
	c.errText = errText
	c.mu.Unlock()

	if score == nil {
		c.view.SetScore("")
	} else {
		c.view.SetScore(rating.FormatScore(*score))
	}
	c.view.SetMessage(message)
	c.view.SetError(errText)
	if score == nil {
		c.view.SetHint("")
	}
}

// Handle serves IPC commands for a running drill.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return responseFor(c.Snapshot(), "status")
	case ipc.CommandToggle:
		return c.request(ctx, intentToggle, "toggle")
	case ipc.CommandNext:
		return c.request(ctx, intentNext, "next")
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// request forwards an intent to the loop and answers with the state after it ran.
func (c *Controller) request(ctx context.Context, kind intentKind, name string) ipc.Response {
	switch state := c.State(); state {
	case fsm.StateInitializing, fsm.StateUnavailable:
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s while %s", name, state)}
	case fsm.StateSubmitting:
		if kind == intentToggle {
			return ipc.Response{OK: false, State: string(state), Error: "already submitting"}
		}
	}

	reply := make(chan Snapshot, 1)
	if !c.post(intent{kind: kind, reply: reply}) {
		return ipc.Response{OK: false, State: string(c.State()), Error: "drill stopped"}
	}
	select {
	case snap := <-reply:
		return responseFor(snap, name)
	case <-ctx.Done():
		return ipc.Response{OK: false, State: string(c.State()), Error: ctx.Err().Error()}
	case <-c.done:
		return ipc.Response{OK: false, State: string(c.State()), Error: "drill stopped"}
	}
}

func responseFor(snap Snapshot, fallback string) ipc.Response {
	resp := ipc.Response{
		OK:      true,
		State:   string(snap.State),
		Word:    snap.Trial.Word,
		Vowel:   snap.Trial.VowelID,
		IPA:     snap.Trial.Symbol(),
		Score:   snap.Score,
		Message: snap.Message,
		Error:   snap.Error,
	}
	if resp.Message == "" {
		resp.Message = fallback
	}
	return resp
}

func failureOutcome(err error) rating.Outcome {
	return rating.Outcome{Failure: &rating.Failure{
		Kind:    rating.KindTransport,
		Message: rating.GenericMessage,
		Err:     err,
	}}
}

func (c *Controller) logResult(r Result) {
	if c.logger == nil {
		return
	}
	attrs := []any{
		"vowel", r.Trial.VowelID,
		"word", r.Trial.Word,
		"bytes", r.Bytes,
		"audio_ms", r.Duration.Milliseconds(),
		"request_id", r.Outcome.RequestID,
		"elapsed_ms", r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
	if r.Outcome.OK() {
		c.logger.Info("trial rated", append(attrs, "score", r.Outcome.Score, "feedback", rating.Feedback(r.Outcome.Score))...)
		return
	}
	c.logger.Warn("trial failed", append(attrs, "kind", string(r.Outcome.Failure.Kind), "message", r.Outcome.Message())...)
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
