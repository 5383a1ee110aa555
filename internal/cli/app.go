package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/lablia/docflow/internal/agents"
	"github.com/lablia/docflow/internal/config"
	"github.com/lablia/docflow/internal/metrics"
	"github.com/lablia/docflow/internal/runtime"
	"github.com/lablia/docflow/pkg/adapters/genai"
	"github.com/lablia/docflow/pkg/adapters/memory"
	redisadapter "github.com/lablia/docflow/pkg/adapters/redis"
	"github.com/lablia/docflow/pkg/ports"
	"github.com/lablia/docflow/pkg/registry"
	"github.com/lablia/docflow/pkg/runner"
	"github.com/lablia/docflow/pkg/session"
)

// App bundles the wired application: model client, session persistence,
// engine, runner and the agent catalog. One App serves every command.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Runner   *runner.Runner
	Registry *registry.Registry

	redisClient *backend.Client
}

// NewApp wires the application from configuration. Sessions live in
// process memory unless a Redis address is configured, in which case the
// store and a distributed lock share one client.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	client := genai.NewClient(genai.Config{
		APIKey:      cfg.GenAI.APIKey,
		BaseURL:     cfg.GenAI.BaseURL,
		Temperature: cfg.GenAI.Temperature,
		Timeout:     cfg.GenAI.Timeout.Std(),
	}, logger)

	app := &App{Config: cfg, Logger: logger}

	var store ports.StateStore
	sessionOpts := []session.Option{session.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		app.redisClient = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisadapter.NewFromClient(app.redisClient,
			redisadapter.WithTTL(cfg.Redis.TTL.Std()))
		locker := redisadapter.NewLocker(app.redisClient, "docflow:lock:")
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
		logger.Info("session store", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		store = memory.NewStore()
		logger.Debug("session store", "backend", "memory")
	}

	sessions := session.NewManager(store, sessionOpts...)

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := runtime.NewEngine(client,
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(m.Hooks()),
		runtime.WithCallTimeout(cfg.GenAI.Timeout.Std()),
	)

	app.Runner = runner.New(engine, sessions,
		runner.WithLogger(logger),
		runner.WithDefaultModel(cfg.GenAI.Model),
	)
	reg, err := agents.NewRegistry()
	if err != nil {
		return nil, err
	}
	app.Registry = reg
	return app, nil
}

// Close releases external resources held by the App.
func (a *App) Close() error {
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	return nil
}
