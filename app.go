package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/streadway/amqp"

	"solarshop/internal/catalog"
	"solarshop/internal/config"
	"solarshop/internal/handlers"
	"solarshop/internal/repositories"
	"solarshop/internal/schema"
	"solarshop/internal/services"
	"solarshop/pkg/rabbitmq"
)

// App is the assembled server with the resources it owns.
type App struct {
	Fiber    *fiber.App
	Products *services.ProductService

	mq      *rabbitmq.Client
	closers []func(context.Context) error
}

// productStore is what the server needs from a product store beyond the
// repository contract.
type productStore struct {
	repo  repositories.ProductRepository
	ping  handlers.Pinger
	close func(context.Context) error
}

func openProductStore(ctx context.Context, cfg *config.Config) (*productStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := repositories.OpenMongo(ctx, repositories.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return &productStore{repo: store.Products(), ping: store, close: store.Close}, nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := repositories.OpenGORM(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		repo := repositories.NewGORMProductRepository(db)
		return &productStore{repo: repo, ping: repo, close: repo.Close}, nil
	case config.DriverMemory:
		return &productStore{repo: repositories.NewMemoryProductRepository()}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewApp connects the configured store and broker and builds the HTTP app.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openProductStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{}
	if store.close != nil {
		app.closers = append(app.closers, store.close)
	}

	// Events are optional; a nil publisher disables them.
	var events services.EventPublisher
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			_ = app.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		app.mq = mqClient
		events = mqClient
	} else {
		log.Println("RABBITMQ_URL is not set, events are disabled")
	}

	authService, err := services.NewAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret, cfg.SessionDuration)
	if err != nil {
		_ = app.Shutdown(ctx)
		return nil, err
	}

	productService := services.NewProductService(store.repo, schema.New(), events)
	orderService := services.NewOrderService(repositories.NewMemoryOrderRepository(), store.repo, events)
	app.Products = productService

	if cfg.StoreDriver == config.DriverMemory || cfg.SeedOnStart {
		if err := seedCatalog(ctx, productService); err != nil {
			_ = app.Shutdown(ctx)
			return nil, err
		}
	}

	app.Fiber = handlers.NewRouter(handlers.RouterConfig{
		Products:       productService,
		Orders:         orderService,
		Auth:           authService,
		Status:         handlers.NewStatusHandler(productService, store.ping, cfg.StoreDriver, app.mq != nil),
		RequestTimeout: cfg.RequestTimeout,
		AccessLog:      true,
	})
	return app, nil
}

// seedCatalog loads the embedded catalog into an empty store.
func seedCatalog(ctx context.Context, products *services.ProductService) error {
	count, err := products.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products before seeding: %w", err)
	}
	if count > 0 {
		log.Printf("Store already holds %d products, skipping seed", count)
		return nil
	}

	inputs, err := catalog.Inputs()
	if err != nil {
		return err
	}
	result := products.BulkCreateProducts(ctx, inputs)
	for _, e := range result.Errors {
		log.Printf("Error seeding product %d: %s %v", e.Index, e.Error, e.Details)
	}
	log.Printf("Seeded %d of %d catalog products", result.SuccessCount, result.TotalProcessed)
	return nil
}

// StartConsumers starts the order notification consumer when a broker is
// configured.
func (a *App) StartConsumers() error {
	if a.mq == nil {
		return nil
	}
	log.Println("Starting RabbitMQ consumer for orders...")
	return a.mq.ConsumeOrderEvents(func(msg amqp.Delivery) error {
		return services.HandleOrderEvent(msg.Body)
	})
}

// Shutdown stops the HTTP server and releases the broker and store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
