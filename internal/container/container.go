package container

import (
	"context"
	"fmt"

	"campaignintel/adapters/excel"
	"campaignintel/adapters/llm"
	"campaignintel/adapters/sqlstore"
	"campaignintel/app"
	"campaignintel/internal"
	"campaignintel/internal/config"
	"campaignintel/internal/narrative"
	"campaignintel/internal/resolver"
	"campaignintel/internal/retry"
	"campaignintel/internal/synthesis"
	"campaignintel/internal/usage"
	"campaignintel/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer); nil without a database
	RecordStore  ports.ConstituencyStore
	StrategyRepo ports.StrategyRepository

	// Synthesis
	Weights  synthesis.Weights
	Engine   *synthesis.Engine
	Resolver *resolver.Resolver

	// Services
	Strategies *app.StrategyService
	Narratives *app.NarrativeService
	Importer   *excel.Importer
	Usage      *usage.Tracker
}

// New creates a container and wires every component. The database is opened
// only when cfg.Database.URL is set.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{Config: cfg, Logger: logger, Usage: usage.NewTracker(logger)}

	if cfg.Database.URL != "" {
		db, err := sqlstore.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		c.InitWithDatabase(db)
	} else {
		logger.Warn("[Container] DATABASE_URL not set, running on the overrides file only")
	}

	if err := c.initSynthesis(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initNarratives(ctx); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("[Container] initialized (database: %t, narrative provider: %s)", c.DB != nil, cfg.Narrative.Provider)
	return c, nil
}

// InitWithDatabase attaches repositories backed by db
func (c *Container) InitWithDatabase(db *sqlx.DB) {
	c.DB = db
	records := sqlstore.NewConstituencyRepository(db)
	c.RecordStore = records
	c.StrategyRepo = sqlstore.NewStrategyRepository(db)
	c.Importer = excel.NewImporter(records, c.Logger)
}

// initSynthesis loads weights and overrides and builds the engine and resolver
func (c *Container) initSynthesis() error {
	weights := synthesis.DefaultWeights()
	if path := c.Config.Engine.WeightsFile; path != "" {
		w, err := synthesis.LoadWeightsFile(path)
		if err != nil {
			return fmt.Errorf("load weights: %w", err)
		}
		weights = w
	}
	engine, err := synthesis.NewEngine(weights)
	if err != nil {
		return err
	}

	overrides, err := resolver.LoadOverrides(c.Config.Engine.OverridesFile)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	c.Weights = weights
	c.Engine = engine
	c.Resolver = resolver.New(c.RecordStore, overrides, c.Logger)
	c.Strategies = app.NewStrategyService(c.Resolver, engine, c.StrategyRepo, c.Logger, c.Config.Engine.PortfolioWorkers)
	return nil
}

// initNarratives picks the primary generator and wraps it with the template fallback
func (c *Container) initNarratives(ctx context.Context) error {
	fallback, err := narrative.NewTemplateNarrator()
	if err != nil {
		return err
	}

	nc := c.Config.Narrative
	var primary ports.NarrativeGenerator
	switch nc.Provider {
	case config.ProviderOpenAI, config.ProviderGemini:
		llmCfg := llm.Config{
			Provider:    nc.Provider,
			Model:       nc.OpenAIModel,
			APIKey:      nc.OpenAIKey,
			BaseURL:     nc.OpenAIURL,
			Temperature: nc.Temperature,
			MaxTokens:   nc.MaxTokens,
			Timeout:     nc.Timeout,
		}
		if nc.Provider == config.ProviderGemini {
			llmCfg.Model = nc.GeminiModel
			llmCfg.APIKey = nc.GeminiKey
		}
		client, err := llm.NewClient(ctx, llmCfg)
		if err != nil {
			return fmt.Errorf("create %s client: %w", nc.Provider, err)
		}
		primary = llm.NewNarrativeAdapter(llmCfg, client).WithUsage(c.Usage)
	}

	c.Narratives = app.NewNarrativeService(primary, fallback, app.NarrativeConfig{
		Timeout: nc.Timeout,
		Retry: retry.Config{
			Attempts:       nc.Retries,
			InitialBackoff: nc.RetryBackoff,
			MaxBackoff:     8 * nc.RetryBackoff,
		},
		CacheTTL: nc.CacheTTL,
	}, c.Logger)
	return nil
}

// Close flushes the logger and releases the database connection
func (c *Container) Close() error {
	c.Logger.Sync()
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
