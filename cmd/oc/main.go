package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"

	"github.com/tchow-twistedxcom/occtl/internal/app"
	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/config"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
	"github.com/tchow-twistedxcom/occtl/internal/tmux"
	"github.com/tchow-twistedxcom/occtl/internal/ui"
)

const Version = "0.3.0"

var cliLog = logging.ForComponent(logging.CompCLI)

func init() {
	initColorProfile()
}

// initColorProfile configures the lipgloss color profile used by the picker.
// OCCTL_COLOR overrides detection: truecolor, 256, 16, none.
func initColorProfile() {
	switch strings.ToLower(os.Getenv("OCCTL_COLOR")) {
	case "truecolor", "true", "24bit":
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	case "256", "ansi256":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return
	case "16", "ansi", "basic":
		lipgloss.SetColorProfile(termenv.ANSI)
		return
	case "none", "off", "ascii":
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	// Most terminals that advertise 256 colors also render TrueColor.
	term := os.Getenv("TERM")
	for _, t := range []string{"256color", "xterm-direct", "alacritty", "kitty", "wezterm"} {
		if strings.Contains(term, t) {
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		}
	}

	if p := termenv.ColorProfile(); p != termenv.Ascii {
		lipgloss.SetColorProfile(p)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, &cliEnv{out: os.Stdout, errOut: os.Stderr}, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command tree and returns the process exit code.
func execute(ctx context.Context, env *cliEnv, args []string) int {
	defer env.close()

	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetOut(env.out)
	root.SetErr(env.errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		cliLog.Error("command_failed", "args", strings.Join(args, " "), "kind", apperr.Kind(err), "error", err.Error())
		printError(env.errOut, err)
		return apperr.ExitCode(err)
	}
	return apperr.ExitOK
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed)
	red.Fprint(w, "✗ ")
	fmt.Fprintln(w, err)
}

func printWarning(w io.Writer, msg string) {
	yellow := color.New(color.FgYellow)
	yellow.Fprint(w, "⚠ ")
	fmt.Fprintln(w, msg)
}

// cliEnv builds the App on first use so that --debug and the config
// directory are settled before logging starts.
type cliEnv struct {
	out    io.Writer
	errOut io.Writer
	debug  bool

	// newApp replaces bootstrap in tests.
	newApp func() (*app.App, error)

	app      *app.App
	cfg      *config.UserConfig
	loggedUp bool
}

func (e *cliEnv) App() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	build := e.bootstrap
	if e.newApp != nil {
		build = e.newApp
	}
	a, err := build()
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func (e *cliEnv) bootstrap() (*app.App, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	paths := config.PathsFor(dir)
	if err := config.EnsureLayout(paths); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", dir, err)
	}

	cfg, cfgErr := config.Load(paths.UserConfig)
	e.cfg = cfg
	e.initLogging(cfg, paths)
	if cfgErr != nil {
		printWarning(e.errOut, cfgErr.Error()+" (using defaults)")
		cliLog.Warn("config_parse_failed", "path", paths.UserConfig, "error", cfgErr.Error())
	}

	host := tmux.NewClient(tmux.Options{
		Timeout:      cfg.Timeouts.Host(),
		MainWindow:   cfg.Session.MainWindow,
		ExtraWindows: cfg.Session.ExtraWindows,
	})
	return app.New(app.Options{
		Config: cfg,
		Paths:  paths,
		Host:   host,
		Out:    e.out,
	}), nil
}

func (e *cliEnv) initLogging(cfg *config.UserConfig, paths config.Paths) {
	compress := true
	if cfg.Logs.Compress != nil {
		compress = *cfg.Logs.Compress
	}
	logging.Init(logging.Config{
		LogDir:     paths.Logs,
		Level:      cfg.Logs.Level,
		Format:     cfg.Logs.Format,
		MaxSizeMB:  cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
		MaxAgeDays: cfg.Logs.MaxAgeDays,
		Compress:   compress,
		Debug:      e.debug,
	})
	log.SetFlags(0)
	log.SetOutput(logging.NewBridgeWriter(logging.CompCLI))
	e.loggedUp = true
}

// initTheme resolves the picker theme. Only attach needs it, and system
// detection can be slow.
func (e *cliEnv) initTheme() {
	if e.cfg == nil {
		return
	}
	ui.InitTheme(e.cfg.ResolveTheme())
}

func (e *cliEnv) close() {
	if e.loggedUp {
		logging.Shutdown()
	}
}
