package cli

import (
	"github.com/zsx0855/cosco-comprehensive-query/internal/application/resolver"
	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/catalog"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres/repositories"
	redisdb "github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/redis"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/messaging/kafka"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/provider"
	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/http/handlers"
)

// app holds the wired platform components a command needs. Every command
// builds one and closes it on the way out.
type app struct {
	cfg    *config.Config
	logger logging.Logger

	pg       *postgres.Connection
	redis    *redisdb.Client
	cache    redisdb.Cache
	producer *kafka.Producer

	probeConfigs handlers.ProbeConfigSource

	screeningSvc *screening.Service
	stsSvc       *screening.STSService
	resolver     *resolver.Resolver
}

// appOptions toggles optional subsystems per command.
type appOptions struct {
	// withKafka wires the event/job producer. The migrate and resolve
	// commands run without a broker.
	withKafka bool
}

// newApp wires the platform from configuration: postgres, redis, the probe
// catalog, the provider fetchers, and the application services.
func newApp(cfg *config.Config, logger logging.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	pg, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.pg = pg

	rc, err := redisdb.NewClient(cfg.Redis, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.redis = rc

	cacheOpts := []redisdb.CacheOption{}
	if cfg.Redis.KeyPrefix != "" {
		cacheOpts = append(cacheOpts, redisdb.WithPrefix(cfg.Redis.KeyPrefix))
	}
	if cfg.Redis.DefaultTTL > 0 {
		cacheOpts = append(cacheOpts, redisdb.WithDefaultTTL(cfg.Redis.DefaultTTL))
	}
	a.cache = redisdb.NewRedisCache(rc, logger, cacheOpts...)

	if opts.withKafka {
		a.producer = kafka.NewProducer(cfg.Kafka, logger)
	}

	// Repositories.
	logRepo := repositories.NewScreeningLogRepo(pg, logger)
	signalRepo := repositories.NewSignalRepo(pg, logger)
	partyRepo := repositories.NewAssociatedPartyRepo(pg, logger)
	descRepo := repositories.NewDescriptionRepo(pg, logger)
	countryRepo := repositories.NewCountryRepo(pg, logger)
	a.probeConfigs = repositories.NewProbeConfigRepo(pg, logger)

	// Reference data reads go through the redis read-through cache.
	countries := redisdb.NewCachedCountrySource(a.cache, countryRepo)
	descriptions := redisdb.NewCachedDescriptionSource(a.cache, descRepo)

	registry, err := catalog.NewRegistry()
	if err != nil {
		a.Close()
		return nil, err
	}

	fetchers := buildFetchers(cfg.Providers, countries)

	orchestrator := screening.NewOrchestrator(registry, fetchers, logger,
		screening.WithMaxInFlight(cfg.Screening.MaxInFlight))

	var publisher screening.EventPublisher
	if a.producer != nil {
		publisher = a.producer
	}
	a.screeningSvc = screening.NewService(orchestrator, logRepo, publisher, logger)

	a.resolver = resolver.NewResolver(signalRepo, partyRepo, descriptions, countries, signalRepo, logger)
	a.stsSvc = screening.NewSTSService(a.resolver, logRepo, logger)

	return a, nil
}

// buildFetchers assembles every provider client plus the country reference
// adapter so all data flows through the session fetch cache.
func buildFetchers(cfg config.ProvidersConfig, countries provider.CountryStore) []provider.Fetcher {
	return []provider.Fetcher{
		provider.NewLloydsSanctionsFetcher(clientConfig(cfg.Lloyds)),
		provider.NewLloydsComplianceFetcher(clientConfig(cfg.Lloyds)),
		provider.NewKplerFetcher(clientConfig(cfg.Kpler)),
		provider.NewUANIFetcher(clientConfig(cfg.UANI)),
		provider.NewVoyageFetcher(clientConfig(cfg.Voyage)),
		provider.NewCountryRefFetcher(countries),
	}
}

func clientConfig(p config.ProviderConfig) provider.ClientConfig {
	return provider.ClientConfig{BaseURL: p.BaseURL, APIKey: p.APIKey, Timeout: p.Timeout}
}

// Close releases infrastructure in reverse construction order.
func (a *app) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("producer close failed", logging.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.logger.Warn("postgres close failed", logging.Err(err))
		}
	}
}
