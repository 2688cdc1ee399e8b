package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/config"
	"github.com/ivlev/demoseq/internal/generators"
	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/schema"
)

// app is the state shared by every command once the root pre-run is done.
type app struct {
	configPath string
	flags      config.Flags

	cfg *config.Config
	reg *schema.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "demoseq",
		Short:        "Timeline sequencer for procedural demo productions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.FileName, "Config file")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.flags.LogFormat, "log-format", "", "Log format: auto, text, json")
	pf.StringVar(&a.flags.ProjectsDir, "projects", "", "Directory searched for the latest project")
	pf.IntVar(&a.flags.Workers, "workers", 0, "Parallel export workers")

	root.AddCommand(newCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(inspectCmd(a))
	root.AddCommand(renderCmd(a))
	root.AddCommand(snapshotCmd(a))
	root.AddCommand(playCmd(a))
	root.AddCommand(watchCmd(a))
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Resolve(a.flags); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLogger(newLogger(cmd.ErrOrStderr(), cfg.LogFormat, level))

	reg, err := generators.Registry()
	if err != nil {
		return fmt.Errorf("building generator registry: %w", err)
	}
	a.cfg, a.reg = cfg, reg
	return nil
}

// projectArg returns args[0], or the most recent project in the projects
// directory.
func (a *app) projectArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return findLatest(a.cfg.ProjectsDir)
}

// newLogger writes text to terminals and JSON elsewhere unless format says
// otherwise.
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	switch format {
	case "text":
		return logging.NewText(w, level)
	case "json":
		return logging.NewJSON(w, level)
	}
	if f, ok := w.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return logging.NewJSON(w, level)
	}
	return logging.NewText(w, level)
}
