package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/apphost/internal/app"
	"github.com/dshills/apphost/internal/config"
	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/loader/lua"
	"github.com/dshills/apphost/internal/logging"
	"github.com/dshills/apphost/internal/view"
)

type runOptions struct {
	configPath string
	page       string
	root       string
	watch      bool
	logLevel   string
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the application and print the rendered page",
		Long: `Load the configuration, install plugins, register resources, attach the
root component and write the rendered page to stdout.

With --watch the configuration file is watched and the page is rebuilt and
printed again after every change, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	cmd.Flags().StringVar(&opts.page, "page", "", "HTML page holding the host element (overrides config)")
	cmd.Flags().StringVar(&opts.root, "root", "", "root element module (overrides config)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rebuild when the configuration changes")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	return cmd
}

func runApp(ctx context.Context, opts runOptions, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.Set(logger)

	if err := build(ctx, cfg, logger, out); err != nil {
		return err
	}
	if !opts.watch || opts.configPath == "" {
		return nil
	}

	err = config.Watch(ctx, opts.configPath, func(next *config.Config, err error) {
		if err != nil {
			return
		}
		applyFlags(next, opts)
		if err := build(ctx, next, logger, out); err != nil {
			logger.Error("rebuild failed", zap.Error(err))
		}
	}, config.WithWatchLogger(logger))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadConfig(opts runOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	} else if err := config.ApplyEnv(cfg, config.EnvPrefix); err != nil {
		return nil, err
	}
	applyFlags(cfg, opts)

	if cfg.Root == "" {
		return nil, errors.New("no root element: set root in the config or pass --root")
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, opts runOptions) {
	if opts.page != "" {
		cfg.Page = opts.page
	}
	if opts.root != "" {
		cfg.Root = opts.root
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
}

// build composes, starts and attaches one application, then renders its
// page to out.
func build(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	doc, err := loadPage(cfg.Page)
	if err != nil {
		return err
	}

	scripts := lua.NewLoader(lua.WithPaths(cfg.SearchPaths()...), lua.WithLogger(logger))
	defer func() { _ = scripts.Close() }()

	a := app.New(
		app.WithLoader(loader.Chain{builtins(), scripts}),
		app.WithDocument(doc),
		app.WithLogger(logger),
	).WithDefaultBindingLanguage()

	for _, p := range cfg.Plugins {
		a.WithPlugin(p.Module, p.Config)
	}
	a.WithResources(cfg.Resources...)

	if _, err := a.Start(ctx); err != nil {
		return err
	}
	if _, err := a.SetRoot(ctx, cfg.Root, app.HostID(cfg.Host)); err != nil {
		return err
	}

	if err := doc.Render(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}

func loadPage(path string) (*view.Document, error) {
	if path == "" {
		return view.NewDocument(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()
	return view.Parse(f)
}
