// Package cli provides the tmagick command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Fepozopo/tmagick/pkg/config"
	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/logging"
	"github.com/Fepozopo/tmagick/pkg/text"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root    *cobra.Command
	stdout  io.Writer
	stderr  io.Writer
	updates updater

	configPath string
	logLevel   string
	logFormat  string
	fontPath   string
	cfg        *config.Config
	fonts      *text.FontSet
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		updates: githubUpdater{},
	}

	app.root = &cobra.Command{
		Use:   "tmagick",
		Short: "Resize, crop, watermark and identify images",
		Long: `tmagick applies geometry-driven resizes and crops, gravity-anchored image
and text watermarks, and metadata stripping to a single image, using the
geometry syntax of the classic raster editing suites.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	pf := app.root.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "config file (default $TMAGICK_CONFIG or <user config dir>/tmagick/config.yaml)")
	pf.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	pf.StringVar(&app.logFormat, "log-format", "", "log format: text or json")

	app.root.AddCommand(
		app.newManipulateCmd(),
		app.newIdentifyCmd(),
		app.newVersionCmd(),
		app.newUpdateCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// setup loads .env and the config file, configures logging and loads the
// label fonts. It runs once, before any subcommand.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if _, err := logging.Setup(a.stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	fonts, err := loadFonts(orDefault(a.fontPath, cfg.Font))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.fonts = fonts
	return nil
}

// loadFonts parses the font at path, or the built-in Go fonts when path is
// empty.
func loadFonts(path string) (*text.FontSet, error) {
	if path == "" {
		fs, err := text.Default()
		if err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "load built-in fonts")
		}
		return fs, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(errs.InvalidArgument, err, "read font %s", path)
	}
	fs, err := text.NewFontSet(data, nil)
	if err != nil {
		return nil, errs.Wrapf(errs.InvalidArgument, err, "font %s", path)
	}
	return fs, nil
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "tmagick version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
