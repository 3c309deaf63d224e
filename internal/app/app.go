package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"voxcart/internal/category"
	"voxcart/internal/cli"
	"voxcart/internal/config"
	"voxcart/internal/doctor"
	"voxcart/internal/export"
	"voxcart/internal/ipc"
	"voxcart/internal/list"
	"voxcart/internal/logging"
	"voxcart/internal/quantity"
	"voxcart/internal/session"
	"voxcart/internal/speech"
	"voxcart/internal/store"
	"voxcart/internal/suggest"
	"voxcart/internal/tui"
	"voxcart/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("voxcart"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("voxcart"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, "cancel")
	case cli.CommandSay:
		return r.commandSay(ctx, parsed, cfgLoaded.Config, logger)
	case cli.CommandListen:
		return r.commandListen(ctx, parsed, cfgLoaded.Config, logger)
	case cli.CommandShow:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			return r.commandShow(eng, parsed.Args)
		})
	case cli.CommandCount:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			active, completed, total := eng.Counts()
			fmt.Fprintf(r.Stdout, "%d open, %d done, %d total\n", active, completed, total)
			return 0
		})
	case cli.CommandExport:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			return r.commandExport(eng, parsed.Args)
		})
	case cli.CommandLists:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			for _, line := range eng.Describe() {
				fmt.Fprintln(r.Stdout, line)
			}
			return 0
		})
	case cli.CommandNewList:
		return r.listOp(ctx, parsed, cfgLoaded.Config, logger, "list name", func(ctx context.Context, eng *Engine, name string) list.Feedback {
			return eng.CreateList(ctx, name)
		})
	case cli.CommandUseList:
		return r.listOp(ctx, parsed, cfgLoaded.Config, logger, "list name", func(ctx context.Context, eng *Engine, name string) list.Feedback {
			return eng.SelectList(ctx, name)
		})
	case cli.CommandRenameList:
		return r.listOp(ctx, parsed, cfgLoaded.Config, logger, "new name", func(ctx context.Context, eng *Engine, name string) list.Feedback {
			return eng.RenameList(ctx, name)
		})
	case cli.CommandDelList:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(ctx context.Context, eng *Engine) int {
			return r.printFeedback(eng.DeleteList(ctx))
		})
	case cli.CommandStaples:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(ctx context.Context, eng *Engine) int {
			return r.commandStaples(ctx, eng, parsed.Args)
		})
	case cli.CommandSuggest:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			return r.commandSuggest(eng, strings.Join(parsed.Args, " "))
		})
	case cli.CommandHistory:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			return r.commandHistory(eng, parsed.Args)
		})
	case cli.CommandVoice:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(_ context.Context, eng *Engine) int {
			return r.commandVoice(eng, parsed.Args)
		})
	case cli.CommandTUI:
		return r.withEngine(ctx, parsed, cfgLoaded.Config, logger, func(ctx context.Context, eng *Engine) int {
			if err := tui.Run(ctx, eng); err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			return 0
		})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// openEngine builds the storage-backed engine for one invocation.
// The returned closer flushes pending writes and releases the database.
func openEngine(parsed cli.Parsed, cfg config.Config, logger *slog.Logger, warn func(store.Warning)) (*Engine, func(), error) {
	var kv store.KV
	var closeKV func() error

	if parsed.Ephemeral {
		kv = store.NewMemoryKV()
		closeKV = func() error { return nil }
	} else {
		dsn, err := config.ResolveDSN(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlite, err := store.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		kv = sqlite
		closeKV = sqlite.Close
	}

	st := store.New(kv, time.Duration(cfg.Persist.DebounceMS)*time.Millisecond, warn)
	speaker := speech.NewSpeaker(cfg.TTS.Cmd.Argv, cfg.TTS.Voice, cfg.TTS.Enable, logger)
	eng := NewEngine(st, speaker, logger,
		cfg.History.MaxEntries,
		suggest.Options{Limit: cfg.Suggest.Limit, MinScore: cfg.Suggest.MinScore},
	)

	closer := func() {
		eng.Close()
		_ = closeKV()
	}
	return eng, closer, nil
}

func (r Runner) withEngine(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger, fn func(context.Context, *Engine) int) int {
	eng, closer, err := openEngine(parsed, cfg, logger, r.storeWarn(logger))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer closer()
	return fn(ctx, eng)
}

func (r Runner) storeWarn(logger *slog.Logger) func(store.Warning) {
	return func(w store.Warning) {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.String())
		if logger != nil {
			logger.Warn("store warning", "op", w.Op, "key", w.Key, "message", w.Message)
		}
	}
}

func (r Runner) printFeedback(fb list.Feedback) int {
	if fb.Message != "" {
		fmt.Fprintln(r.Stdout, fb.Message)
	}
	if fb.Severity == list.SeverityError {
		return 1
	}
	return 0
}

func (r Runner) listOp(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger, what string, op func(context.Context, *Engine, string) list.Feedback) int {
	name := strings.TrimSpace(strings.Join(parsed.Args, " "))
	if name == "" {
		fmt.Fprintf(r.Stderr, "error: missing %s\n", what)
		return 2
	}
	return r.withEngine(ctx, parsed, cfg, logger, func(ctx context.Context, eng *Engine) int {
		return r.printFeedback(op(ctx, eng, name))
	})
}

// commandSay routes one transcript either into a live listening session
// or through a short-lived local engine.
func (r Runner) commandSay(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	text := strings.TrimSpace(strings.Join(parsed.Args, " "))
	if text == "" {
		fmt.Fprintln(r.Stderr, "error: nothing to say")
		return 2
	}

	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := forwardRequest(ctx, socketPath, ipc.Request{Command: "say", Text: text})
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
	}

	return r.withEngine(ctx, parsed, cfg, logger, func(ctx context.Context, eng *Engine) int {
		return r.printFeedback(eng.Say(ctx, text))
	})
}

func (r Runner) commandShow(eng *Engine, args []string) int {
	snap := eng.Snapshot()
	filter := eng.Filter()
	if len(args) > 0 {
		if !list.ValidFilter(args[0]) {
			fmt.Fprintf(r.Stderr, "error: unknown filter %q\n", args[0])
			return 2
		}
		filter = list.Filter(args[0])
	}

	if name := snap.Active().Name; name != "" {
		fmt.Fprintf(r.Stdout, "%s\n", name)
	}

	items := list.Filtered(snap.Items(), filter)
	if len(items) == 0 {
		fmt.Fprintln(r.Stdout, "(empty)")
		return 0
	}

	for _, group := range list.Grouped(items) {
		fmt.Fprintf(r.Stdout, "%s:\n", category.Label(group.Category))
		for _, item := range group.Items {
			mark := " "
			if item.Completed {
				mark = "x"
			}
			fmt.Fprintf(r.Stdout, "  [%s] %s\n", mark, item.Label())
		}
	}
	return 0
}

func (r Runner) commandExport(eng *Engine, args []string) int {
	opts := export.Options{Format: export.FormatPlain}
	for _, arg := range args {
		switch {
		case arg == "all":
			opts.IncludeChecked = true
		case export.Valid(arg):
			opts.Format = export.Format(arg)
		default:
			fmt.Fprintf(r.Stderr, "error: unknown export option %q\n", arg)
			return 2
		}
	}

	rendered, err := eng.Export(opts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, rendered)
	return 0
}

func (r Runner) commandStaples(ctx context.Context, eng *Engine, args []string) int {
	if len(args) == 0 {
		staples := eng.Staples()
		if len(staples) == 0 {
			fmt.Fprintln(r.Stdout, "(no staples)")
			return 0
		}
		for _, staple := range staples {
			fmt.Fprintf(r.Stdout, "%s [%s]\n", staple.Label(), category.Label(staple.Category))
		}
		return 0
	}

	sub, rest := args[0], strings.TrimSpace(strings.Join(args[1:], " "))
	switch sub {
	case "add":
		return r.printFeedback(eng.AddStaple(ctx, rest))
	case "remove":
		return r.printFeedback(eng.RemoveStaple(ctx, rest))
	case "apply":
		return r.printFeedback(eng.ApplyStaples(ctx))
	default:
		fmt.Fprintf(r.Stderr, "error: unknown staples subcommand %q\n", sub)
		return 2
	}
}

func (r Runner) commandSuggest(eng *Engine, query string) int {
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(r.Stderr, "error: missing query")
		return 2
	}

	matches := eng.Suggestions(query)
	if len(matches) == 0 {
		fmt.Fprintln(r.Stdout, "(no suggestions)")
		return 0
	}
	for _, match := range matches {
		fmt.Fprintf(r.Stdout, "%.2f %s (%s, %s)\n",
			match.Score,
			match.Candidate.Label(),
			match.Candidate.Source,
			match.Reason,
		)
	}
	return 0
}

func (r Runner) commandHistory(eng *Engine, args []string) int {
	entries := eng.History()
	if len(args) > 0 {
		switch args[0] {
		case "frequent":
			entries = eng.FrequentHistory()
		default:
			fmt.Fprintf(r.Stderr, "error: unknown history option %q\n", args[0])
			return 2
		}
	}

	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "(no history)")
		return 0
	}
	for _, entry := range entries {
		fmt.Fprintf(r.Stdout, "%s [%s] x%d\n",
			quantity.Label(entry.Name, entry.Quantity, entry.Unit),
			category.Label(entry.Category),
			entry.Count,
		)
	}
	return 0
}

func (r Runner) commandVoice(eng *Engine, args []string) int {
	if len(args) == 0 {
		voice := eng.Voice()
		if voice == "" {
			fmt.Fprintln(r.Stdout, "(default voice)")
		} else {
			fmt.Fprintln(r.Stdout, voice)
		}
		return 0
	}

	voice := strings.TrimSpace(strings.Join(args, " "))
	if voice == "reset" {
		eng.SetVoice("")
		fmt.Fprintln(r.Stdout, "Voice preference reset.")
		return 0
	}
	eng.SetVoice(voice)
	fmt.Fprintf(r.Stdout, "Voice preference: %s\n", voice)
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active voxcart session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandListen owns the long-lived voice session: it takes the runtime
// socket, serves IPC for one-shot clients, and runs the controller until
// a stop, cancel, or fatal recognition error.
func (r Runner) commandListen(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a voxcart session is already listening")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	eng, closer, err := openEngine(parsed, cfg, logger, r.storeWarn(logger))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer closer()

	probeTimeout := time.Duration(cfg.Speech.ProbeTimeoutMS) * time.Millisecond
	if probeErr := speech.Probe(ctx, cfg.Speech.Endpoint, probeTimeout); probeErr != nil {
		logger.Warn("speech backend unreachable, transcripts arrive over IPC only",
			"endpoint", cfg.Speech.Endpoint,
			"error", probeErr.Error(),
		)
	}

	controller := session.NewController(logger, speech.NoopRecognizer{}, session.DispatchFunc(
		func(ctx context.Context, transcript string) (list.Feedback, error) {
			return eng.Say(ctx, transcript), nil
		},
	))

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, sessionHandler{controller: controller})
	}()

	fmt.Fprintln(r.Stdout, "listening")
	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "session over: %d commands\n", result.Dispatched)
	return 0
}

// sessionHandler extends the controller's IPC surface with the say
// command so one-shot clients can feed transcripts into a live session.
type sessionHandler struct {
	controller *session.Controller
}

func (h sessionHandler) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	if req.Command != "say" {
		return h.controller.Handle(ctx, req)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return ipc.Response{OK: false, State: string(h.controller.State()), Error: "nothing to say"}
	}
	if !h.controller.Inject(text) {
		return ipc.Response{OK: false, State: string(h.controller.State()), Error: "session busy, try again"}
	}
	return ipc.Response{
		OK:      true,
		State:   string(h.controller.State()),
		Message: fmt.Sprintf("heard: %s", text),
	}
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"cancelled", result.Cancelled,
		"dispatched", result.Dispatched,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"last_feedback", result.LastFeedback.Message,
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	return forwardRequest(ctx, socketPath, ipc.Request{Command: command})
}

func forwardRequest(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
