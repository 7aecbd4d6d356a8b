package config

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Scorer: ScorerConfig{
			URL:      "http://127.0.0.1:8080",
			RatePath: "/rate",
		},
		Audio: AudioConfig{
			Input:      "default",
			Fallback:   "default",
			SampleRate: 16000,
			Cues:       true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
