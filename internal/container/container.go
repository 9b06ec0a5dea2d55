package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"scriptures/mapped/internal/catalog"
	"scriptures/mapped/internal/client"
	"scriptures/mapped/internal/config"
	"scriptures/mapped/internal/display"
	"scriptures/mapped/internal/domain"
	"scriptures/mapped/internal/mapview"
	"scriptures/mapped/internal/markers"
	"scriptures/mapped/internal/poller"
	"scriptures/mapped/internal/repository"
	"scriptures/mapped/internal/router"
	"scriptures/mapped/internal/sequencer"
	"scriptures/mapped/internal/server"
	"scriptures/mapped/internal/service"
	"scriptures/mapped/internal/state"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Client       client.ScripturesClient
	Store        *catalog.Store
	StateManager state.StateManager
	Places       repository.PlaceRepository

	Browser *service.Browser
	Server  *server.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. ctx bounds
// the lifetime of background work such as map readiness polling.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	if err := container.connect(ctx); err != nil {
		container.Close()
		return nil, err
	}

	scripturesClient := client.NewScripturesClient(cfg.Scriptures)
	container.Client = scripturesClient

	store := catalog.NewStore(scripturesClient)
	container.Store = store

	widget := mapview.New(domain.Viewport{
		Latitude:  cfg.Map.DefaultLatitude,
		Longitude: cfg.Map.DefaultLongitude,
		Zoom:      cfg.Map.DefaultZoom,
	})
	readiness := poller.New(clock.New(), cfg.Map.InitialDelay(), cfg.Map.Ceiling())
	aggregator := markers.NewAggregator(widget, readiness, markers.ViewportPolicy{
		DefaultLatitude:  cfg.Map.DefaultLatitude,
		DefaultLongitude: cfg.Map.DefaultLongitude,
		DefaultZoom:      cfg.Map.DefaultZoom,
		SingleMarkerZoom: cfg.Map.SingleMarkerZoom,
	})

	panel := display.NewPanel()
	navigator := router.NewNavigator(ctx, store, sequencer.New(store), scripturesClient, panel, aggregator)

	container.Browser = service.NewBrowser(
		store,
		navigator,
		aggregator,
		panel,
		widget,
		container.StateManager,
		container.Places,
		cfg.Redis.Session,
		cfg.Map.SingleMarkerZoom,
	)
	container.Server = server.New(cfg.Server, container.Browser)

	return container, nil
}

// connect opens the optional Redis and Postgres backends. Whatever was opened
// before a failure is left on c for Close.
func (c *Container) connect(ctx context.Context) error {
	cfg := c.Config

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.redis = rdb

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		c.StateManager = state.NewRedisStateManager(rdb)
	} else {
		c.StateManager = state.NewMemoryStateManager()
	}

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db

		places := repository.NewPlaceRepository(db)
		if err := places.EnsureSchema(ctx); err != nil {
			return err
		}
		c.Places = places
		log.Info("✅ Connected to Postgres successfully")
	}

	return nil
}

// Run loads the catalog, reopens the last visited view and serves the API
// until ctx is done.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.Start()
	})

	g.Go(func() error {
		return c.Browser.Initialize(ctx, func() {
			if _, err := c.Browser.Resume(ctx); err != nil {
				log.Warnf("⚠️ Could not reopen last view: %v", err)
			}
		})
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return c.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
