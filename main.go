package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"vips_analyzer/application/analyzer"
	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
	"vips_analyzer/infrastructure/browser"
	"vips_analyzer/infrastructure/config"
	"vips_analyzer/infrastructure/security"
	"vips_analyzer/infrastructure/storage"
	"vips_analyzer/presentation/api"
	"vips_analyzer/presentation/terminal"
)

func main() {
	app := &cli.App{
		Name:  "vips-analyzer",
		Usage: "Segment a rendered web page into scored visual blocks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"VIPS_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "override logging.level"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveAction,
			},
			{
				Name:      "analyze",
				Usage:     "Analyze one URL and write the annotated overlay",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "model", Usage: "also write the extracted model JSON to this path"},
				},
				Action: analyzeAction,
			},
			{
				Name:   "repl",
				Usage:  "Analyze URLs interactively",
				Action: replAction,
			},
			{
				Name:      "render",
				Usage:     "Draw a saved model over a saved screenshot",
				ArgsUsage: "<model.json> <screenshot.png>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "overlay.png", Usage: "output PNG path"},
					&cli.IntFlag{Name: "resize", Usage: "container width after the first layout"},
					&cli.BoolFlag{Name: "recompute", Usage: "recompute the scale on resize (overrides overlay.recompute_on_resize)"},
				},
				Action: renderAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type services struct {
	cfg      *config.Config
	logger   *logrus.Logger
	driver   interfaces.PageDriver
	analyzer *analyzer.Service
}

func (r *services) Close() {
	if r.driver != nil {
		if err := r.driver.Close(); err != nil {
			r.logger.WithError(err).Warn("Failed to close browser driver")
		}
	}
}

func loadConfig(c *cli.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func setup(c *cli.Context) (*services, error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	driver, err := browser.NewDriver(cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	var store interfaces.ArtifactStore
	if cfg.Analysis.ArtifactPath != "" {
		store = storage.NewModelArtifact(cfg.Analysis.ArtifactPath)
	}

	policy := security.NewTargetPolicy(cfg.Analysis.DeniedHosts, cfg.Analysis.AllowPrivateTargets, logger)

	return &services{
		cfg:      cfg,
		logger:   logger,
		driver:   driver,
		analyzer: analyzer.NewService(driver, store, logger, cfg.Analysis.Timeout).WithPolicy(policy),
	}, nil
}

func newLogger(lc config.LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if lc.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func serveAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signalContext(c)
	defer stop()

	h := api.NewHandler(rt.analyzer, rt.cfg.Overlay, rt.logger)
	return api.Serve(ctx, rt.cfg.Server, api.NewRouter(h, rt.logger, rt.cfg.Server.Debug), rt.logger)
}

func analyzeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: vips-analyzer analyze <url>", 2)
	}
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signalContext(c)
	defer stop()

	var a interfaces.Analyzer = rt.analyzer
	if path := c.String("model"); path != "" {
		a = modelWriter{next: rt.analyzer, store: storage.NewModelArtifact(path)}
	}

	term := terminal.NewTerminalInterface(a, rt.cfg.Overlay, rt.logger, os.Stdin, os.Stdout)
	_, err = term.Analyze(ctx, c.Args().First())
	return err
}

func replAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signalContext(c)
	defer stop()

	return terminal.NewTerminalInterface(rt.analyzer, rt.cfg.Overlay, rt.logger, os.Stdin, os.Stdout).Run(ctx)
}

func renderAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: vips-analyzer render <model.json> <screenshot.png>", 2)
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	root, err := storage.LoadModel(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	shot, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("failed to read screenshot: %w", err)
	}
	oc := cfg.Overlay
	if c.IsSet("recompute") {
		oc.RecomputeOnResize = c.Bool("recompute")
	}
	var resizes []int
	if c.IsSet("resize") {
		resizes = append(resizes, c.Int("resize"))
	}

	img, err := terminal.RenderOverlay(&entities.AnalysisResult{Root: root, Screenshot: shot}, oc, resizes...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out"), img, 0644); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	logger.WithField("path", c.String("out")).Info("Overlay written")
	return nil
}

// modelWriter saves every successful model to an extra location.
type modelWriter struct {
	next  interfaces.Analyzer
	store interfaces.ArtifactStore
}

func (m modelWriter) Analyze(ctx context.Context, url string) (*entities.AnalysisResult, error) {
	result, err := m.next.Analyze(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveModel(result.Root); err != nil {
		return nil, err
	}
	return result, nil
}
