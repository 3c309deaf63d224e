// Package doctor runs runtime readiness diagnostics for config, storage,
// speech, and TTS.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"voxcart/internal/config"
	"voxcart/internal/speech"
	"voxcart/internal/store"
)

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
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})
	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{
			Name:    "config.warning",
			Pass:    true,
			Message: warning.Message,
		})
	}

	checks = append(checks, checkStore(cfg.Config))
	checks = append(checks, checkSpeechReady(ctx, cfg.Config))

	if cfg.Config.TTS.Enable {
		checks = append(checks, checkCommand(cfg.Config.TTS.Cmd.Argv, "tts.cmd"))
	}

	return Report{Checks: checks}
}

// checkStore opens the configured database and round-trips one entry.
func checkStore(cfg config.Config) Check {
	dsn, err := config.ResolveDSN(cfg)
	if err != nil {
		return Check{Name: "store", Pass: false, Message: err.Error()}
	}

	kv, err := store.OpenSQLite(dsn)
	if err != nil {
		return Check{Name: "store", Pass: false, Message: err.Error()}
	}
	defer func() { _ = kv.Close() }()

	probeKey := "doctor-probe"
	if err := kv.Set(probeKey, []byte("ok")); err != nil {
		return Check{Name: "store", Pass: false, Message: fmt.Sprintf("write failed: %v", err)}
	}
	value, ok, err := kv.Get(probeKey)
	if err != nil || !ok || string(value) != "ok" {
		return Check{Name: "store", Pass: false, Message: fmt.Sprintf("read-back failed: %v", err)}
	}
	_ = kv.Delete(probeKey)

	return Check{Name: "store", Pass: true, Message: fmt.Sprintf("read/write ok at %q", dsn)}
}

// checkSpeechReady probes the configured recognition backend.
func checkSpeechReady(ctx context.Context, cfg config.Config) Check {
	timeout := time.Duration(cfg.Speech.ProbeTimeoutMS) * time.Millisecond
	if err := speech.Probe(ctx, cfg.Speech.Endpoint, timeout); err != nil {
		return Check{Name: "speech.ready", Pass: false, Message: err.Error()}
	}
	return Check{Name: "speech.ready", Pass: true, Message: fmt.Sprintf("ready at %s", cfg.Speech.Endpoint)}
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
