// Package doctor runs readiness diagnostics for the drill environment.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/vowelpro/internal/audio"
	"github.com/rbright/vowelpro/internal/config"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string `json:"name" yaml:"name"`
	Pass    bool   `json:"pass" yaml:"pass"`
	Message string `json:"message" yaml:"message"`
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check `json:"checks" yaml:"checks"`
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// DeviceSelector resolves the configured audio input.
type DeviceSelector func(ctx context.Context, input, fallback string) (audio.Selection, error)

// Runner executes the checks. The zero value uses the live Pulse server.
type Runner struct {
	SelectDevice DeviceSelector
}

// Run executes checks for a loaded config concurrently; the report keeps a
// stable order.
func (r Runner) Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	selectDevice := r.SelectDevice
	if selectDevice == nil {
		selectDevice = audio.SelectDevice
	}

	probes := []func(context.Context) Check{
		func(context.Context) Check { return checkConfig(loaded) },
		func(ctx context.Context) Check { return checkAudioSelection(ctx, cfg.Audio, selectDevice) },
		func(ctx context.Context) Check { return checkScorerHTTP(ctx, cfg.Scorer) },
	}
	if strings.TrimSpace(cfg.Scorer.GRPCHealth) != "" {
		probes = append(probes, func(ctx context.Context) Check { return checkScorerGRPC(ctx, cfg.Scorer.GRPCHealth) })
	}

	checks := make([]Check, len(probes))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		group.Go(func() error {
			checks[i] = probe(groupCtx)
			return nil
		})
	}
	_ = group.Wait()

	return Report{Checks: checks}
}

// Run executes the checks against the live environment.
func Run(ctx context.Context, loaded config.Loaded) Report {
	return Runner{}.Run(ctx, loaded)
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.AudioConfig, selectDevice DeviceSelector) Check {
	selection, err := selectDevice(ctx, cfg.Input, cfg.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkScorerHTTP confirms the rate endpoint answers. The route only accepts
// uploads, so any non-5xx status counts as reachable.
func checkScorerHTTP(ctx context.Context, cfg config.ScorerConfig) Check {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return Check{Name: "scorer.http", Pass: false, Message: "scorer.url is empty"}
	}
	url := base + cfg.RatePath

	resp, err := resty.New().SetTimeout(probeTimeout).R().SetContext(ctx).Get(url)
	if err != nil {
		return Check{Name: "scorer.http", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	if resp.StatusCode() >= 500 {
		return Check{Name: "scorer.http", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode(), url)}
	}
	return Check{Name: "scorer.http", Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", url, resp.StatusCode())}
}

// checkScorerGRPC asks a standard gRPC health service for overall status.
func checkScorerGRPC(ctx context.Context, target string) Check {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Check{Name: "scorer.grpc", Pass: false, Message: fmt.Sprintf("dial %s: %v", target, err)}
	}
	defer func() { _ = conn.Close() }()

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return Check{Name: "scorer.grpc", Pass: false, Message: fmt.Sprintf("health check failed: %v", err)}
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: "scorer.grpc", Pass: false, Message: fmt.Sprintf("%s reports %s", target, resp.GetStatus())}
	}
	return Check{Name: "scorer.grpc", Pass: true, Message: fmt.Sprintf("serving at %s", target)}
}
