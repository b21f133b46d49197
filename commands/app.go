package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maestrohq/maestro/catalog"
	"github.com/maestrohq/maestro/classify"
	"github.com/maestrohq/maestro/config"
	"github.com/maestrohq/maestro/detect"
	"github.com/maestrohq/maestro/engine"
	"github.com/maestrohq/maestro/store"
	"github.com/maestrohq/maestro/workflow"
)

// App wires the engine to its stores and, for the NATS backend, to a server
// connection. Short-lived commands build one, run one operation, and shut it
// down; serve keeps it alive.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	root      string
	workspace string

	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	detector *detect.Detector
	engine   *engine.Engine
	registry *prometheus.Registry
}

// newApp builds the application from configuration.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	root := cfg.Workspace.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	app := &App{
		cfg:       cfg,
		logger:    logger,
		root:      absRoot,
		workspace: workspaceSlug(absRoot),
		registry:  prometheus.NewRegistry(),
	}

	table, err := app.signatureTable()
	if err != nil {
		return nil, err
	}
	app.detector = detect.NewDetector(table, cfg.Detect.MinCategories, logger)

	plans, questions, err := app.buildStores(ctx)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Options{
		Plans:       plans,
		Questions:   questions,
		Detector:    app.detector,
		Classifier:  classify.NewClassifier(cfg.Thresholds, &classify.HeuristicEstimator{}, logger),
		Catalog:     catalog.Default(),
		Vocabulary:  workflow.NewVocabulary(cfg.Approval),
		ProfilePath: app.profilePath(),
		Metrics:     engine.NewMetrics(app.registry),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	app.engine = eng
	return app, nil
}

func (a *App) signatureTable() (*detect.Table, error) {
	if a.cfg.Detect.SignatureTable == "" {
		return nil, nil
	}
	table, err := detect.LoadTableFromFile(a.cfg.Detect.SignatureTable)
	if err != nil {
		return nil, fmt.Errorf("load signature table: %w", err)
	}
	return table, nil
}

func (a *App) buildStores(ctx context.Context) (store.PlanStore, store.QuestionStore, error) {
	switch a.cfg.Store.Backend {
	case "nats":
		if err := a.startNATS(ctx); err != nil {
			return nil, nil, err
		}
		kv, err := store.NewKVStore(ctx, a.js, a.logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	default:
		fs, err := store.NewFileStore(a.stateDir(), a.logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs, nil
	}
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Info("connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return wrapNATSError(err, a.cfg.NATS.URL)
		}
		a.natsConn = conn
	} else {
		a.logger.Info("starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			StoreDir:  filepath.Join(a.stateDir(), "nats"),
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js
	return nil
}

// Shutdown gracefully stops the NATS connection and embedded server.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}

// stateDir returns the workspace state directory.
func (a *App) stateDir() string {
	return filepath.Join(a.root, a.cfg.Workspace.Dir)
}

// profilePath returns the cached stack profile location.
func (a *App) profilePath() string {
	return filepath.Join(a.stateDir(), "profile.json")
}

// wrapNATSError provides guidance when a NATS connection fails.
func wrapNATSError(err error, url string) error {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no servers available") ||
		strings.Contains(msg, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Set nats.embedded: true to run an embedded server, or point nats.url at a
running NATS server.`, err, url)
	}
	return fmt.Errorf("NATS connection failed: %w", err)
}

// slugChars strips everything a workspace id cannot carry.
var slugChars = regexp.MustCompile(`[^a-z0-9-]+`)

// workspaceSlug derives the workspace id from the root directory name.
func workspaceSlug(root string) string {
	slug := strings.ToLower(filepath.Base(root))
	slug = slugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "-")
	}
	if slug == "" {
		slug = "workspace"
	}
	return slug
}
