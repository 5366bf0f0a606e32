// Package container wires the application services into a samber/do injector.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/htmlflow/internal/handlers"
	"github.com/serroba/htmlflow/internal/health"
	"github.com/serroba/htmlflow/internal/messaging"
	"github.com/serroba/htmlflow/internal/middleware"
	"github.com/serroba/htmlflow/internal/ratelimit"
	"github.com/serroba/htmlflow/internal/session"
	"github.com/serroba/htmlflow/internal/usage"
	usagestore "github.com/serroba/htmlflow/internal/usage/store"
	"go.uber.org/zap"
)

const (
	// IDLength is the length of generated conversion identifiers.
	IDLength = 8
	// ConsumerGroupName is the Redis stream consumer group of the usage ledger.
	ConsumerGroupName = "quota-ledger"

	connectTimeout = 5 * time.Second
)

// ErrNoDatabase is returned when the Postgres ledger is requested without a URL.
var ErrNoDatabase = errors.New("database url not configured")

// Options is the configuration surface. humacli exposes every field as a
// flag and as a SERVICE_* environment variable.
type Options struct {
	Port          int    `default:"8888"           help:"Port to listen on"                                         short:"p"`
	RedisAddr     string `default:"localhost:6379" help:"Redis server address"                                      short:"r"`
	RedisPassword string `default:""               help:"Redis password"`
	RedisDB       int    `default:"0"              help:"Redis database number"`
	AllowList     string `default:""               help:"Comma-separated caller addresses exempt from the daily quota"`
	TrustProxy    bool   `default:"false"          help:"Resolve callers from X-Forwarded-For and X-Real-IP"`
	FailOpen      bool   `default:"false"          help:"Admit requests when the counter store is unreachable"`
	LogFormat     string `default:"console"        help:"Log format: console or json"`
	DatabaseURL   string `default:""               help:"PostgreSQL URL of the usage ledger"`
	StreamMaxLen  int64  `default:"100000"         help:"Approximate cap on entries kept in each event stream"`
	StoreHost     string `default:""               help:"Host running Redis, used by the ssh command"`
	StoreSSHUser  string `default:""               help:"SSH user for the store host"`
}

// LoggerPackage provides *zap.Logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared *session.Manager. The session is not
// dialed until Initialize is called.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*session.Manager, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return session.NewManager(session.RedisDialer(redisOptions(opts)), logger.Named("session")), nil
	})
}

// PostgresPackage provides the *usagestore.Postgres ledger with its schema in place.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*usagestore.Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.DatabaseURL == "" {
			return nil, ErrNoDatabase
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		ledger := usagestore.NewPostgres(pool)
		if err := ledger.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ensure usage schema: %w", err)
		}

		return ledger, nil
	})
}

// UsageStorePackage provides usage.Store: the Postgres ledger when a
// database URL is configured, otherwise a log-only store.
func UsageStorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (usage.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			logger.Info("no database configured, quota decisions are only logged")

			return usagestore.NewNoop(logger), nil
		}

		return do.Invoke[*usagestore.Postgres](i)
	})
}

// RateLimitPackage provides *ratelimit.Limiter backed by the shared session.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		manager := do.MustInvoke[*session.Manager](i)

		allowList, rejected := ratelimit.ParseAllowList(opts.AllowList)
		for _, entry := range rejected {
			logger.Warn("ignoring allow-list entry that is not an IP address", zap.String("entry", entry))
		}

		logger.Info("rate limiter configured",
			zap.Int("daily_limit", ratelimit.DailyRequestLimit),
			zap.Int("allow_listed", allowList.Len()),
		)

		return ratelimit.NewLimiter(manager, allowList), nil
	})
}

// StreamPublisherConfig returns the Redis stream publisher settings. Every
// topic is trimmed to roughly opts.StreamMaxLen entries on write.
func StreamPublisherConfig(client redis.UniversalClient, opts *Options) redisstream.PublisherConfig {
	return redisstream.PublisherConfig{
		Client:        client,
		Marshaller:    redisstream.DefaultMarshallerUnmarshaller{},
		DefaultMaxlen: opts.StreamMaxLen,
	}
}

// PublisherGroupPackage provides *messaging.PublisherGroup over a Redis
// stream publisher and the typed quota decision Publish func. The publisher
// owns a dedicated client, which it closes on shutdown.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client := redis.NewClient(redisOptions(opts))

		publisher, err := redisstream.NewPublisher(StreamPublisherConfig(client, opts), messaging.NewZapLogger(logger))
		if err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[usage.QuotaDecisionEvent], error) {
		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[usage.QuotaDecisionEvent](group.Publisher(), usage.TopicQuotaDecision), nil
	})
}

// HTTPPackage provides the *chi.Mux router and the huma.API with every
// route and middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		manager := do.MustInvoke[*session.Manager](i)
		limiter := do.MustInvoke[*ratelimit.Limiter](i)

		publish, err := do.Invoke[messaging.Publish[usage.QuotaDecisionEvent]](i)
		if err != nil {
			return nil, err
		}

		gen, err := nanoid.Standard(IDLength)
		if err != nil {
			return nil, fmt.Errorf("create id generator: %w", err)
		}

		api := humachi.New(router, huma.DefaultConfig("htmlflow", "1.0.0"))
		identity := middleware.ClientIdentity(opts.TrustProxy)

		api.UseMiddleware(middleware.RequestMeta(api, identity))
		api.UseMiddleware(middleware.Quota(api, limiter, middleware.QuotaOptions{
			Identity: identity,
			FailOpen: opts.FailOpen,
			Publish:  publish,
		}, logger.Named("quota")))

		handlers.RegisterRoutes(api,
			handlers.NewConvertHandler(handlers.PassthroughConverter{}, gen, logger),
			handlers.NewQuotaHandler(),
		)
		health.RegisterRoutes(api, health.NewHandler(manager))

		return api, nil
	})
}

// ConsumerGroupPackage provides *messaging.ConsumerGroup persisting quota
// decisions from the Redis stream into usage.Store. The subscriber owns a
// dedicated client, which it closes on shutdown.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ledger, err := do.Invoke[usage.Store](i)
		if err != nil {
			return nil, err
		}

		client := redis.NewClient(redisOptions(opts))

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: ConsumerGroupName,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			usage.TopicQuotaDecision,
			usage.NewRecorder(ledger, logger),
			logger,
		))

		return group, nil
	})
}

// redisOptions builds client options from the configuration.
func redisOptions(opts *Options) *redis.Options {
	return &redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	}
}
