package config

import "strings"

// document is the on-disk JSONC shape. Pointers distinguish "absent" from
// zero so a partial file only overrides what it names.
type document struct {
	Scorer  *scorerDocument  `json:"scorer"`
	Speaker *speakerDocument `json:"speaker"`
	Audio   *audioDocument   `json:"audio"`
	Log     *logDocument     `json:"log"`
	Debug   *debugDocument   `json:"debug"`
}

type scorerDocument struct {
	URL        *string `json:"url"`
	RatePath   *string `json:"rate_path"`
	TimeoutMS  *int    `json:"timeout_ms"`
	GRPCHealth *string `json:"grpc_health"`
}

type speakerDocument struct {
	Category *string `json:"category"`
}

type audioDocument struct {
	Input            *string `json:"input"`
	Fallback         *string `json:"fallback"`
	SampleRate       *int    `json:"sample_rate"`
	AcquireTimeoutMS *int    `json:"acquire_timeout_ms"`
	Cues             *bool   `json:"cues"`
}

type logDocument struct {
	Level      *string `json:"level"`
	MaxSizeMB  *int    `json:"max_size_mb"`
	MaxBackups *int    `json:"max_backups"`
	MaxAgeDays *int    `json:"max_age_days"`
}

type debugDocument struct {
	AudioDump *bool `json:"audio_dump"`
}

func (d document) applyTo(cfg *Config) {
	if s := d.Scorer; s != nil {
		setString(&cfg.Scorer.URL, s.URL)
		setString(&cfg.Scorer.RatePath, s.RatePath)
		setInt(&cfg.Scorer.TimeoutMS, s.TimeoutMS)
		setString(&cfg.Scorer.GRPCHealth, s.GRPCHealth)
	}
	if s := d.Speaker; s != nil && s.Category != nil {
		cfg.Speaker.Category = strings.ToUpper(strings.TrimSpace(*s.Category))
	}
	if a := d.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
		setInt(&cfg.Audio.SampleRate, a.SampleRate)
		setInt(&cfg.Audio.AcquireTimeoutMS, a.AcquireTimeoutMS)
		if a.Cues != nil {
			cfg.Audio.Cues = *a.Cues
		}
	}
	if l := d.Log; l != nil {
		if l.Level != nil {
			cfg.Log.Level = strings.ToLower(strings.TrimSpace(*l.Level))
		}
		setInt(&cfg.Log.MaxSizeMB, l.MaxSizeMB)
		setInt(&cfg.Log.MaxBackups, l.MaxBackups)
		setInt(&cfg.Log.MaxAgeDays, l.MaxAgeDays)
	}
	if dbg := d.Debug; dbg != nil && dbg.AudioDump != nil {
		cfg.Debug.AudioDump = *dbg.AudioDump
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
