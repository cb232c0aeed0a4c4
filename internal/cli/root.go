package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nethoundsh/dedupe/internal/config"
	"github.com/nethoundsh/dedupe/internal/logging"
	"github.com/nethoundsh/dedupe/internal/metrics"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitDuplicates  = 2
	ExitInterrupted = 130
)

// Set via ldflags at build time.
var version = "dev"

// app is the state shared by every command of one invocation.
type app struct {
	configPath  string
	logLevel    string
	logFormat   string
	format      string
	jsonFlag    bool
	metricsFile string

	cfg *config.Config
}

// exitError carries a non-default exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// outputFormat is "json" when --json is set, else --format.
func (a *app) outputFormat() string {
	if a.jsonFlag {
		return "json"
	}
	return a.format
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "dedupe",
		Short: "Find and trash duplicate files",
		Long: "dedupe walks root directories, hashes every regular file with SHA-256\n" +
			"and groups files with identical content. Groups can be listed, filtered\n" +
			"and resolved by moving all but one member of each group to the trash.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("dedupe %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file (default ~/.config/dedupe/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: console or json (default from config)")
	pf.StringVar(&a.format, "format", "text", "Output format: text or json")
	pf.BoolVar(&a.jsonFlag, "json", false, "Shorthand for --format json")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(newScanCmd(a))
	root.AddCommand(newAutoCmd(a))
	root.AddCommand(newHashCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd())
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd.Name() == "version" {
		a.cfg = config.Default()
		return nil
	}
	switch a.format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --format %q; must be 'text' or 'json'", a.format)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	level, format := cfg.Log.Level, cfg.Log.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	if err := logging.Init(logging.Config{Level: level, Format: format}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	for _, w := range cfg.Validate() {
		logging.Warn("config", logging.String("field", w.Field), logging.String("problem", w.Message))
	}
	return nil
}

// RootCmd returns the root command for documentation generation.
func RootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code := exitCode(ctx, err)
	if err != nil && code != ExitDuplicates {
		if code == ExitInterrupted {
			fmt.Fprintln(stderr, "Interrupted")
		} else {
			fmt.Fprintln(stderr, "Error:", err)
		}
	}

	if a.metricsFile != "" {
		if werr := metrics.WriteTextfile(a.metricsFile); werr != nil {
			fmt.Fprintln(stderr, "Error: writing metrics:", werr)
			if code == ExitOK {
				code = ExitError
			}
		}
	}
	_ = logging.Sync()
	return code
}

func exitCode(ctx context.Context, err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, traverse.ErrCancelled) || ctx.Err() != nil {
		return ExitInterrupted
	}
	return ExitError
}
