package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	structural   *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		structural = validator.New(validator.WithRequiredStructEnabled())
		structural.RegisterTagNameFunc(func(field reflect.StructField) string {
			return field.Tag.Get("key")
		})
	})
	return structural
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	if err := validatorInstance().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, describeFieldError(fieldErrs[0])
		}
		return nil, err
	}

	scorer, err := url.Parse(cfg.Scorer.URL)
	if err != nil {
		return nil, fmt.Errorf("scorer.url: %w", err)
	}
	if scorer.Scheme != "http" && scorer.Scheme != "https" {
		return nil, fmt.Errorf("scorer.url must use http or https")
	}
	if scorer.RawQuery != "" || scorer.Fragment != "" {
		return nil, fmt.Errorf("scorer.url must not carry a query or fragment")
	}

	warnings := make([]Warning, 0)
	if cfg.Debug.AudioDump {
		warnings = append(warnings, Warning{Message: "debug.audio_dump is enabled; every recording is written to disk"})
	}
	if cfg.Scorer.TimeoutMS > 0 && cfg.Scorer.TimeoutMS < 500 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("scorer.timeout_ms=%d is shorter than a typical rating round trip", cfg.Scorer.TimeoutMS)})
	}
	return warnings, nil
}

// describeFieldError renders a validator failure with the config key path,
// e.g. "audio.sample_rate must be one of: 8000, 16000".
func describeFieldError(fe validator.FieldError) error {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s must not be empty", key)
	case "url":
		return fmt.Errorf("%s must be an absolute URL", key)
	case "startswith":
		return fmt.Errorf("%s must start with '%s'", key, fe.Param())
	case "gte":
		return fmt.Errorf("%s must be >= %s", key, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be > %s", key, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", key, strings.Join(strings.Fields(fe.Param()), ", "))
	case "hostname_port":
		return fmt.Errorf("%s must be host:port", key)
	default:
		return fmt.Errorf("%s failed %s validation", key, fe.Tag())
	}
}
