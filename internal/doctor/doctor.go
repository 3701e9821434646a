// Package doctor runs runtime readiness diagnostics for config, session
// environment, action tools, and the daemon's network endpoints.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
	"github.com/rbright/hark/internal/ingest"
	"github.com/rbright/hark/internal/ipc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
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

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkRuntimeDir())

	hyprBackend := !strings.EqualFold(strings.TrimSpace(cfg.Indicator.Backend), "desktop")
	usesHypr := cfg.Indicator.Enable && hyprBackend
	usesClipboard := false
	for _, cmd := range cfg.Commands {
		switch cmd.Action.Kind {
		case config.ActionExec:
			checks = append(checks, checkCommand(cmd.Action.Argv, "command "+cmd.Name))
		case config.ActionHypr:
			usesHypr = true
		case config.ActionClipboard:
			usesClipboard = true
		case config.ActionNotify:
			usesHypr = usesHypr || hyprBackend
		}
	}

	if usesHypr {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkHyprctl(ctx))
	}
	if usesClipboard {
		checks = append(checks, checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"))
	}
	if addr := strings.TrimSpace(cfg.GRPC.Listen); addr != "" {
		checks = append(checks, checkIngestHealth(ctx, addr))
	}
	if addr := strings.TrimSpace(cfg.Metrics.Listen); addr != "" {
		checks = append(checks, checkMetrics(ctx, addr))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: false, Message: fmt.Sprintf("%q not found; no commands configured", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q (%d command(s))", loaded.Path, len(loaded.Config.Commands))
	if len(loaded.Warnings) > 0 {
		message += fmt.Sprintf(", %d warning(s)", len(loaded.Warnings))
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkRuntimeDir validates that the IPC socket directory is usable.
func checkRuntimeDir() Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "runtime.dir", Pass: false, Message: err.Error()}
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return Check{Name: "runtime.dir", Pass: false, Message: fmt.Sprintf("stat %s: %v", dir, err)}
	}
	if !info.IsDir() {
		return Check{Name: "runtime.dir", Pass: false, Message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return Check{Name: "runtime.dir", Pass: true, Message: fmt.Sprintf("socket at %s", path)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkHyprctl validates that hyprctl can reach the compositor.
func checkHyprctl(ctx context.Context) Check {
	if check := checkBinary("hyprctl", "hypr actions and indicator"); !check.Pass {
		return check
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	version, err := hypr.Version(probeCtx)
	if err != nil {
		return Check{Name: "hyprctl", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hyprctl", Pass: true, Message: "compositor reachable (" + version + ")"}
}

// checkIngestHealth asks the running daemon's gRPC health service about ingest.
func checkIngestHealth(ctx context.Context, addr string) Check {
	client, err := ingest.Dial(ctx, dialAddr(addr), probeTimeout)
	if err != nil {
		return Check{Name: "grpc.health", Pass: false, Message: err.Error()}
	}
	defer client.Close()

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	state, err := client.Health(probeCtx)
	if err != nil {
		return Check{Name: "grpc.health", Pass: false, Message: err.Error()}
	}
	if state != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: "grpc.health", Pass: false, Message: fmt.Sprintf("%s at %s", state, addr)}
	}
	return Check{Name: "grpc.health", Pass: true, Message: fmt.Sprintf("serving at %s", addr)}
}

// checkMetrics probes the Prometheus endpoint of the running daemon.
func checkMetrics(ctx context.Context, addr string) Check {
	url := "http://" + dialAddr(addr) + "/metrics"
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: "metrics", Pass: false, Message: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "metrics", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "metrics", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "metrics", Pass: true, Message: fmt.Sprintf("serving at %s", url)}
}

// dialAddr rewrites wildcard listen hosts to loopback.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
