// Package config resolves, parses, validates, and defaults vowelpro configuration.
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Scorer  ScorerConfig  `key:"scorer"`
	Speaker SpeakerConfig `key:"speaker"`
	Audio   AudioConfig   `key:"audio"`
	Log     LogConfig     `key:"log"`
	Debug   DebugConfig   `key:"debug"`
}

// ScorerConfig locates the pronunciation scorer.
type ScorerConfig struct {
	URL       string `key:"url" validate:"required,url"`
	RatePath  string `key:"rate_path" validate:"required,startswith=/"`
	TimeoutMS int    `key:"timeout_ms" validate:"gte=0"`
	// GRPCHealth is an optional host:port answering grpc.health.v1.
	GRPCHealth string `key:"grpc_health" validate:"omitempty,hostname_port"`
}

// Timeout is the request deadline; zero means none.
func (s ScorerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// SpeakerConfig carries the optional speaker category hint sent with ratings.
type SpeakerConfig struct {
	Category string `key:"category" validate:"omitempty,oneof=M F"`
}

// AudioConfig controls input selection and capture format.
type AudioConfig struct {
	Input            string `key:"input"`
	Fallback         string `key:"fallback"`
	SampleRate       int    `key:"sample_rate" validate:"oneof=8000 16000 22050 44100 48000"`
	AcquireTimeoutMS int    `key:"acquire_timeout_ms" validate:"gte=0"`
	// Cues plays short tones on recording transitions.
	Cues             bool   `key:"cues"`
}

// AcquireTimeout bounds microphone acquisition; zero means none.
func (a AudioConfig) AcquireTimeout() time.Duration {
	return time.Duration(a.AcquireTimeoutMS) * time.Millisecond
}

// LogConfig controls the JSONL log file.
type LogConfig struct {
	Level      string `key:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `key:"max_size_mb" validate:"gt=0"`
	MaxBackups int    `key:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `key:"max_age_days" validate:"gte=0"`
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump bool `key:"audio_dump"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
