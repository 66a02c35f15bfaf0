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

	"golang.org/x/sync/errgroup"

	"github.com/tubenote/tubenote/internal/auth"
	"github.com/tubenote/tubenote/internal/callback"
	"github.com/tubenote/tubenote/internal/cli"
	"github.com/tubenote/tubenote/internal/config"
	"github.com/tubenote/tubenote/internal/doctor"
	"github.com/tubenote/tubenote/internal/ipc"
	"github.com/tubenote/tubenote/internal/logging"
	"github.com/tubenote/tubenote/internal/note"
	"github.com/tubenote/tubenote/internal/progress"
	"github.com/tubenote/tubenote/internal/transcript"
	"github.com/tubenote/tubenote/internal/version"
	"github.com/tubenote/tubenote/internal/videourl"
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
		fmt.Fprint(r.Stderr, cli.HelpText("tubenote"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("tubenote"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(loaded.Settings.LogLevel)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range loaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("settings warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"settings", loaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, loaded, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandLogin:
		return r.commandLogin(ctx, loaded, parsed.Arg, logger)
	case cli.CommandAuth:
		return r.commandAuth(ctx, loaded, logger)
	case cli.CommandFetch:
		return r.commandFetch(ctx, loaded, parsed.Arg, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDoctor(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	var validator doctor.TokenValidator
	if strings.TrimSpace(loaded.Settings.Token) != "" {
		validator = auth.NewManager(loaded.Settings, config.NewStore(loaded.Path), logger, nil)
	}

	report := doctor.Run(ctx, loaded, validator)
	fmt.Fprintln(r.Stdout, report.String())
	if report.OK() {
		return 0
	}
	return 1
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		if resp.Message != "" {
			fmt.Fprintf(r.Stdout, "%s: %s\n", resp.State, resp.Message)
		} else {
			fmt.Fprintln(r.Stdout, resp.State)
		}
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
		fmt.Fprintf(r.Stderr, "error: no running tubenote process\n")
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

func (r Runner) commandLogin(ctx context.Context, loaded config.Loaded, token string, logger *slog.Logger) int {
	manager := auth.NewManager(loaded.Settings, config.NewStore(loaded.Path), logger, func(text string) {
		fmt.Fprintln(r.Stderr, text)
	})

	if err := manager.HandleCallback(ctx, token, ""); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	manager.Wait()

	fmt.Fprintln(r.Stdout, "token installed")
	return 0
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
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

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
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

// serveIPC owns the control socket for the lifetime of a foreground command.
// Returns nil listener plus nil error when no runtime dir is available; the
// command then runs without a control socket.
func serveIPC(ctx context.Context, handler ipc.Handler, logger *slog.Logger) (func(), error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		logger.Warn("control socket unavailable", "error", err.Error())
		return func() {}, nil
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		return nil, err
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, handler)
	}()

	stop := func() {
		serverCancel()
		if serveErr := <-serverErrCh; serveErr != nil {
			logger.Error("ipc server failed", "error", serveErr.Error())
		}
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}
	return stop, nil
}

func (r Runner) commandFetch(ctx context.Context, loaded config.Loaded, arg string, logger *slog.Logger) int {
	videoURL, err := r.resolveURL(ctx, loaded.Settings, arg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	console := progress.NewConsoleStatus(r.Stderr)
	coordinator := progress.NewCoordinator(logger, console)

	fetchCtx, cancelFetch := context.WithCancel(ctx)
	defer cancelFetch()

	stopIPC, err := serveIPC(ctx, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.Response{OK: true, State: "fetching", Message: coordinator.Status()}
		case ipc.CommandCancel:
			cancelFetch()
			return ipc.Response{OK: true, Message: "cancellation requested"}
		default:
			return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
		}
	}), logger)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a fetch is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer stopIPC()

	marker := progress.MarkerID("fetch:" + videoURL)
	coordinator.AddMarker(marker)
	defer coordinator.RemoveMarker(marker)

	coordinator.StartCountdown(loaded.Settings.CountdownSeconds)
	client := transcript.NewClient(loaded.Settings, logger, coordinator.Publish)
	result := client.Fetch(fetchCtx, videoURL)
	coordinator.StopCountdown()

	if result.Failed() {
		coordinator.Publish("❌ Transcript fetch failed")
	} else {
		coordinator.Publish("✅ Transcript ready: " + result.Title)
	}

	committer := note.NewCommitter(loaded.Settings, logger)
	if err := committer.Commit(ctx, result.Title, result.Content); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if result.Failed() {
		return 1
	}
	return 0
}

// resolveURL picks the video URL from the argument or, when absent, scans
// the clipboard for one.
func (r Runner) resolveURL(ctx context.Context, settings config.Settings, arg string) (string, error) {
	candidate := strings.TrimSpace(arg)
	source := "argument"

	if candidate == "" {
		argv, err := settings.ClipboardArgv()
		if err != nil {
			return "", fmt.Errorf("clipboard_cmd: %w", err)
		}
		candidate, err = note.ReadClipboard(ctx, argv)
		if err != nil {
			return "", err
		}
		source = "clipboard"
	}

	if videourl.IsValid(candidate) {
		return candidate, nil
	}
	if url, ok := videourl.Extract(candidate); ok {
		return url, nil
	}
	return "", fmt.Errorf("no YouTube URL found in %s", source)
}

func (r Runner) commandAuth(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	console := progress.NewConsoleStatus(r.Stderr)
	coordinator := progress.NewCoordinator(logger, console)

	manager := auth.NewManager(loaded.Settings, config.NewStore(loaded.Path), logger, coordinator.Publish)

	stopIPC, err := serveIPC(ctx, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.Response{OK: true, State: string(manager.State()), Message: coordinator.Status()}
		case ipc.CommandCancel:
			manager.Abort()
			return ipc.Response{OK: true, Message: "sign-in abort requested"}
		default:
			return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
		}
	}), logger)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: another tubenote command is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer stopIPC()

	session, err := manager.StartDeviceFlow(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	server, err := callback.NewServer(manager.HandleCallback, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "Visit %s and enter code %s\n", session.VerificationURL, session.UserCode)
	fmt.Fprintf(r.Stdout, "Or let the page redirect to %s\n", server.URL())

	if err := r.runAuthPhases(ctx, manager, server, session.DeviceCode); err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthorizationDenied):
			fmt.Fprintln(r.Stderr, "error: authorization was denied")
		case errors.Is(err, auth.ErrDeviceFlowTimeout):
			fmt.Fprintln(r.Stderr, "error: sign-in timed out; run tubenote auth again")
		case errors.Is(err, auth.ErrFlowAborted):
			fmt.Fprintln(r.Stderr, "sign-in cancelled")
		default:
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		}
		return 1
	}

	manager.Wait()
	fmt.Fprintln(r.Stdout, "signed in")
	return 0
}

// runAuthPhases races the device-code poll loop against the browser
// redirect; the first phase to deliver a credential decides the outcome.
func (r Runner) runAuthPhases(ctx context.Context, manager *auth.Manager, server *callback.Server, deviceCode string) error {
	authCtx, cancelAuth := context.WithCancel(ctx)
	defer cancelAuth()

	outcome := make(chan error, 2)
	go func() {
		outcome <- manager.HandleCallback(authCtx, "", deviceCode)
	}()
	go func() {
		select {
		case err := <-server.Done():
			outcome <- err
		case <-authCtx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(authCtx)
	g.Go(server.Serve)
	g.Go(func() error {
		defer cancelAuth()
		select {
		case err := <-outcome:
			return err
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
