package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxcart/internal/fsm"
	"voxcart/internal/ipc"
	"voxcart/internal/session"
	"voxcart/internal/speech"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "voxcart")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerStopReturnsNoActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "stop"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no active voxcart session")
}

func TestRunnerForwardsCommandsToActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t)
	commands := make(chan string, 8)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "voxcart.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		commands <- req.Command
		switch req.Command {
		case "status":
			return ipc.Response{OK: true, State: "listening"}
		case "stop", "cancel":
			return ipc.Response{OK: true, Message: req.Command + " handled"}
		default:
			return ipc.Response{OK: false, Error: "unsupported"}
		}
	})
	defer shutdown()

	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	for _, cmd := range []string{"status", "stop", "cancel"} {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner.Stdout = stdout
		runner.Stderr = stderr

		exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, cmd})
		require.Equal(t, 0, exitCode, cmd)
		require.Empty(t, stderr.String(), cmd)
	}

	got := []string{<-commands, <-commands, <-commands}
	require.ElementsMatch(t, []string{"status", "stop", "cancel"}, got)
}

func TestRunnerSayForwardsTranscriptToActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t)
	transcripts := make(chan string, 1)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "voxcart.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		require.Equal(t, "say", req.Command)
		transcripts <- req.Text
		return ipc.Response{OK: true, State: "listening", Message: "heard: " + req.Text}
	})
	defer shutdown()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "say", "add", "milk"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "add milk", <-transcripts)
	require.Contains(t, stdout.String(), "heard: add milk")
}

func TestRunnerSayAppliesLocallyWithoutSession(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{
		"--config", paths.configPath, "--ephemeral",
		"say", "add", "2", "gallons", "of", "milk",
	})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Added to list: 2 gallons milk")
}

func TestRunnerShowAndCountEphemeral(t *testing.T) {
	paths := setupRunnerEnv(t)
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	stdout := &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--ephemeral", "show"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "My List")
	require.Contains(t, stdout.String(), "(empty)")

	stdout = &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "--ephemeral", "count"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "0 open, 0 done, 0 total\n", stdout.String())
}

func TestRunnerListCommandsRequireName(t *testing.T) {
	paths := setupRunnerEnv(t)

	for _, cmd := range []string{"newlist", "uselist", "renamelist"} {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner := Runner{Stdout: stdout, Stderr: stderr}

		exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--ephemeral", cmd})
		require.Equal(t, 2, exitCode, cmd)
		require.Contains(t, stderr.String(), "missing", cmd)
	}
}

func TestRunnerExportRejectsUnknownOption(t *testing.T) {
	paths := setupRunnerEnv(t)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	runner := Runner{Stdout: stdout, Stderr: stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--ephemeral", "export", "yaml"})
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown export option")
}

func TestRunnerStaplesEphemeralRoundTrip(t *testing.T) {
	paths := setupRunnerEnv(t)

	stdout := &bytes.Buffer{}
	runner := Runner{Stdout: stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--ephemeral", "staples"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "(no staples)")

	stdout = &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "--ephemeral", "staples", "add", "milk"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Saved staple: milk")
}

func TestRunnerHistoryTracksAdds(t *testing.T) {
	paths := setupRunnerEnv(t)

	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "say", "add", "2", "gallons", "of", "milk"})
	require.Equal(t, 0, exitCode)

	stdout := &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "history"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "2 gallons milk [Dairy] x1")

	stdout = &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "history", "frequent"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "(no history)")

	stderr := &bytes.Buffer{}
	runner.Stderr = stderr
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "history", "bogus"})
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown history option")
}

func TestRunnerVoicePreferenceRoundTrip(t *testing.T) {
	paths := setupRunnerEnv(t)

	stdout := &bytes.Buffer{}
	runner := Runner{Stdout: stdout, Stderr: &bytes.Buffer{}}
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "voice"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "(default voice)")

	stdout = &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "voice", "en_US-amy-medium"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Voice preference: en_US-amy-medium")

	stdout = &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "voice"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "en_US-amy-medium")

	stdout = &bytes.Buffer{}
	runner.Stdout = stdout
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "voice", "reset"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Voice preference reset.")
}

func TestTryForwardSuccessAndFailureResponses(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "voxcart.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	serverCtx, cancelServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			switch req.Command {
			case "status":
				return ipc.Response{OK: true, State: "listening"}
			default:
				return ipc.Response{OK: false, Error: "unsupported"}
			}
		}))
	}()

	resp, handled, err := tryForward(context.Background(), socketPath, "status")
	require.True(t, handled)
	require.NoError(t, err)
	require.Equal(t, "listening", resp.State)

	_, handled, err = tryForward(context.Background(), socketPath, "cancel")
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")

	cancelServer()
	require.NoError(t, <-serverDone)
}

func TestTryForwardDoesNotRemoveSocketPathOnForwardFailure(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcart.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, handled, err := tryForward(context.Background(), socketPath, "status")
	require.False(t, handled)
	require.NoError(t, err)

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
}

func TestSessionHandlerInjectsSayText(t *testing.T) {
	controller := session.NewController(nil, speech.NoopRecognizer{}, nil)
	handler := sessionHandler{controller: controller}

	resp := handler.Handle(context.Background(), ipc.Request{Command: "say", Text: " add milk "})
	require.True(t, resp.OK)
	require.Contains(t, resp.Message, "heard: add milk")

	resp = handler.Handle(context.Background(), ipc.Request{Command: "say", Text: "   "})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "nothing to say")

	// Non-say requests fall through to the controller.
	resp = handler.Handle(context.Background(), ipc.Request{Command: "status"})
	require.True(t, resp.OK)
	require.Equal(t, string(fsm.StateIdle), resp.State)
}

func TestSocketErrorHelpers(t *testing.T) {
	require.False(t, isSocketMissing(nil))
	require.False(t, isConnectionRefused(nil))

	require.True(t, isSocketMissing(os.ErrNotExist))
	require.True(t, isSocketMissing(errors.New("dial unix /tmp/voxcart.sock: no such file or directory")))
	require.False(t, isSocketMissing(errors.New("other error")))

	require.True(t, isConnectionRefused(syscall.ECONNREFUSED))
	require.False(t, isConnectionRefused(errors.New("other error")))
}

func TestLogSessionResultWritesFailureAndSuccess(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	started := time.Now()
	finished := started.Add(1500 * time.Millisecond)

	logSessionResult(logger, session.Result{
		State:      fsm.StateIdle,
		Dispatched: 3,
		StartedAt:  started,
		FinishedAt: finished,
	})

	require.Contains(t, logBuf.String(), "session complete")
	require.Contains(t, logBuf.String(), "\"dispatched\":3")

	logBuf.Reset()
	logSessionResult(logger, session.Result{
		State:      fsm.StateError,
		StartedAt:  started,
		FinishedAt: finished,
		Err:        errors.New("boom"),
	})
	require.Contains(t, logBuf.String(), "session failed")
	require.Contains(t, logBuf.String(), "boom")
}

type runnerPaths struct {
	configPath string
	runtimeDir string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	xdgStateHome := t.TempDir()
	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(configPath, []byte("\n"), 0o600))

	return runnerPaths{configPath: configPath, runtimeDir: runtimeDir}
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}
