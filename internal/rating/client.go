// Package rating submits recorded attempts to the pronunciation scorer and
// turns its responses into typed outcomes.
package rating

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/rbright/vowelpro/internal/capture"
	"github.com/rbright/vowelpro/internal/trial"
)

const (
	// GenericMessage is shown for every failure the scorer did not explain.
	GenericMessage = "error retrieving response from server"

	// DefaultRatePath is the scorer's upload route.
	DefaultRatePath = "/rate"

	// RequestIDHeader correlates client and scorer logs.
	RequestIDHeader = "X-Request-Id"

	uploadFileName = "recording.wav"
	uploadMIMEType = "audio/wav"
)

var (
	errEmptyBody = errors.New("empty scorer response")
	errNoScore   = errors.New("scorer response has neither score nor error")
)

// Kind classifies a failed submission.
type Kind string

const (
	KindTransport Kind = "transport"
	KindMalformed Kind = "malformed"
	KindServer    Kind = "server"
)

// Failure is a rating that produced no score.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Dimensions are the per-axis z scores some scorers attach to a rating.
type Dimensions struct {
	SampleFrontBack float64 `json:"sample_front_back"`
	ModelFrontBack  float64 `json:"model_front_back"`
	SampleHeight    float64 `json:"sample_height"`
	ModelHeight     float64 `json:"model_height"`
}

// FrontBackDelta is how far the attempt sits from the model on the front/back axis.
func (d Dimensions) FrontBackDelta() float64 {
	return d.SampleFrontBack - d.ModelFrontBack
}

// HeightDelta is how far the attempt sits from the model on the height axis.
func (d Dimensions) HeightDelta() float64 {
	return d.SampleHeight - d.ModelHeight
}

// Outcome is exactly one of a score or a failure.
type Outcome struct {
	Score      float64
	Dimensions *Dimensions
	Failure    *Failure

	RequestID  string
	StatusCode int
	Latency    time.Duration
}

// OK reports whether the outcome carries a score.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Message is the text for the error surface; empty for scores.
func (o Outcome) Message() string {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Message
}

// Config configures the scorer client.
type Config struct {
	BaseURL  string
	RatePath string
	// Timeout of zero leaves the request bounded only by ctx.
	Timeout time.Duration
	// Sex is the optional speaker category hint ("M" or "F").
	Sex string
}

// Client posts recordings to the scorer. Safe for concurrent use.
type Client struct {
	http     *resty.Client
	ratePath string
	sex      string
	logger   *slog.Logger
	validate *validator.Validate
}

// NewClient builds a scorer client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	ratePath := strings.TrimSpace(cfg.RatePath)
	if ratePath == "" {
		ratePath = DefaultRatePath
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:     httpClient,
		ratePath: ratePath,
		sex:      strings.TrimSpace(cfg.Sex),
		logger:   logger,
		validate: validator.New(),
	}
}

// Submit sends one artifact for the trial's vowel. It never retries and
// always returns exactly one outcome.
func (c *Client) Submit(ctx context.Context, artifact capture.Artifact, t trial.Trial) Outcome {
	requestID := uuid.NewString()
	started := time.Now()

	fields := map[string]string{"vowel": t.VowelID}
	if c.sex != "" {
		fields["sex"] = c.sex
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID).
		SetMultipartField("file", uploadFileName, uploadMIMEType, bytes.NewReader(artifact.Data)).
		SetFormData(fields).
		Post(c.ratePath)

	outcome := Outcome{RequestID: requestID, Latency: time.Since(started)}
	if err != nil {
		outcome.Failure = &Failure{Kind: KindTransport, Message: GenericMessage, Err: err}
		c.log(outcome, t, len(artifact.Data))
		return outcome
	}

	outcome.StatusCode = resp.StatusCode()
	c.parse(resp.Body(), &outcome)
	c.log(outcome, t, len(artifact.Data))
	return outcome
}

type response struct {
	Score   *float64        `json:"score"`
	Error   *string         `json:"error"`
	ZValues json.RawMessage `json:"z_values"`
}

// parse maps a scorer body onto the outcome. An explicit error string wins
// over a score; anything else unusable is malformed.
func (c *Client) parse(body []byte, outcome *Outcome) {
	if len(bytes.TrimSpace(body)) == 0 {
		outcome.Failure = &Failure{Kind: KindMalformed, Message: GenericMessage, Err: errEmptyBody}
		return
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		outcome.Failure = &Failure{Kind: KindMalformed, Message: GenericMessage, Err: fmt.Errorf("decode scorer response: %w", err)}
		return
	}

	if payload.Error != nil && strings.TrimSpace(*payload.Error) != "" {
		outcome.Failure = &Failure{Kind: KindServer, Message: *payload.Error}
		return
	}
	if payload.Score == nil {
		outcome.Failure = &Failure{Kind: KindMalformed, Message: GenericMessage, Err: errNoScore}
		return
	}
	if err := c.validate.Var(*payload.Score, "gte=0,lte=100"); err != nil {
		outcome.Failure = &Failure{
			Kind:    KindMalformed,
			Message: GenericMessage,
			Err:     fmt.Errorf("score %v out of range: %w", *payload.Score, err),
		}
		return
	}

	outcome.Score = *payload.Score
	outcome.Dimensions = c.dimensions(payload.ZValues)
}

// dimensions decodes the optional z_values extra. A payload that does not fit
// is dropped without affecting the score.
func (c *Client) dimensions(raw json.RawMessage) *Dimensions {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var dims Dimensions
	if err := json.Unmarshal(raw, &dims); err != nil {
		if c.logger != nil {
			c.logger.Debug("ignoring z_values", "error", err.Error())
		}
		return nil
	}
	return &dims
}

func (c *Client) log(outcome Outcome, t trial.Trial, size int) {
	if c.logger == nil {
		return
	}
	attrs := []any{
		"request_id", outcome.RequestID,
		"vowel", t.VowelID,
		"word", t.Word,
		"bytes", size,
		"status", outcome.StatusCode,
		"latency_ms", outcome.Latency.Milliseconds(),
	}
	if outcome.OK() {
		c.logger.Info("rating received", append(attrs, "score", outcome.Score)...)
		return
	}
	attrs = append(attrs, "kind", string(outcome.Failure.Kind), "message", outcome.Failure.Message)
	if outcome.Failure.Err != nil {
		attrs = append(attrs, "error", outcome.Failure.Err.Error())
	}
	c.logger.Warn("rating failed", attrs...)
}
