package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueScored
	cueFailed
)

const (
	cueSampleRate = 16000

	// startCueWait bounds how long Started holds the caller.
	startCueWait = time.Second
)

type cueRequest struct {
	kind cueKind
	ctx  context.Context
	done chan struct{}
}

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

var (
	startCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 880, duration: 70 * time.Millisecond, volume: 0.18},
		{frequencyHz: 1175, duration: 70 * time.Millisecond, volume: 0.18},
	})
	stopCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 620, duration: 120 * time.Millisecond, volume: 0.18},
	})
	scoredCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 740, duration: 65 * time.Millisecond, volume: 0.18},
		{frequencyHz: 988, duration: 90 * time.Millisecond, volume: 0.18},
	})
	failedCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 480, duration: 75 * time.Millisecond, volume: 0.18},
		{frequencyHz: 360, duration: 90 * time.Millisecond, volume: 0.18},
	})
)

// CuePlayer plays short synthesized tones on the default Pulse sink. Cues
// play one at a time; a stop or rated cue requested while the queue is full
// is dropped.
type CuePlayer struct {
	logger *slog.Logger
	queue  chan cueRequest
	play   func(context.Context, []int16) error
}

// NewCuePlayer starts a player that runs until ctx ends.
func NewCuePlayer(ctx context.Context, logger *slog.Logger) *CuePlayer {
	p := &CuePlayer{logger: logger, queue: make(chan cueRequest, 4), play: playSynthCue}
	go p.loop(ctx)
	return p
}

// Started plays the start cue and returns once it has drained, after
// startCueWait, or when ctx ends. A cue cut short stops playing.
func (p *CuePlayer) Started(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, startCueWait)
	defer cancel()

	done := make(chan struct{})
	select {
	case p.queue <- cueRequest{kind: cueStart, ctx: ctx, done: done}:
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (p *CuePlayer) Stopped() { p.enqueue(cueStop) }

// Rated plays the scored cue for a score and the failed cue otherwise.
func (p *CuePlayer) Rated(ok bool) {
	if ok {
		p.enqueue(cueScored)
		return
	}
	p.enqueue(cueFailed)
}

func (p *CuePlayer) enqueue(kind cueKind) {
	select {
	case p.queue <- cueRequest{kind: kind}:
	default:
	}
}

func (p *CuePlayer) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.queue:
			playCtx := ctx
			if req.ctx != nil {
				playCtx = req.ctx
			}
			if err := emitCue(playCtx, req.kind, p.play); err != nil && p.logger != nil {
				p.logger.Debug("cue playback failed", "cue", int(req.kind), "error", err.Error())
			}
			if req.done != nil {
				close(req.done)
			}
		}
	}
}

func emitCue(ctx context.Context, kind cueKind, play func(context.Context, []int16) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return play(ctx, samples)
}

func playSynthCue(ctx context.Context, samples []int16) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName(appName+" cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

func cueSamples(kind cueKind) []int16 {
	switch kind {
	case cueStart:
		return startCuePCM
	case cueStop:
		return stopCuePCM
	case cueScored:
		return scoredCuePCM
	case cueFailed:
		return failedCuePCM
	default:
		return nil
	}
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gapSamples := samplesForDuration(22 * time.Millisecond)

	var pcm []int16
	for i, part := range parts {
		pcm = append(pcm, synthesizeTone(part)...)
		if i < len(parts)-1 && gapSamples > 0 {
			pcm = append(pcm, make([]int16, gapSamples)...)
		}
	}
	return pcm
}

// synthesizeTone renders a sine with a short linear attack and release.
func synthesizeTone(tone toneSpec) []int16 {
	n := samplesForDuration(tone.duration)
	if n <= 0 || tone.frequencyHz <= 0 || tone.volume <= 0 {
		return nil
	}

	ramp := min(max(n/10, 1), cueSampleRate/200) // at most 5ms

	pcm := make([]int16, n)
	for i := range n {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		t := float64(i) / cueSampleRate
		sample := math.Sin(2 * math.Pi * tone.frequencyHz * t)
		pcm[i] = int16(math.Round(sample * tone.volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
