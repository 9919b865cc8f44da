// Package billboard serves advertisements by id from a read-through cache
// backed by a primary and a backup provider.
//
// A lookup tries the cache first. On a miss it calls the primary provider up
// to a configured number of times with a fixed wait between failures, unless
// the primary has failed too often within the last hour, in which case it is
// skipped. When the primary cannot produce the advertisement the backup is
// called once. Whatever a provider returns is cached for the configured TTL;
// absent results are never cached.
//
// # Quick Start
//
//	primary := billboard.ProviderFunc(func(ctx context.Context, id string) (*billboard.Advertisement, error) {
//	    return api.Fetch(ctx, id)
//	})
//	backup := billboard.ProviderFunc(func(ctx context.Context, id string) (*billboard.Advertisement, error) {
//	    return db.Fetch(ctx, id)
//	})
//
//	client, err := billboard.New(primary, backup)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if ad, ok := client.Lookup(ctx, "42"); ok {
//	    fmt.Println(ad.Name)
//	}
//
// Lookup never returns an error. A missing advertisement and an outage of
// every tier look the same to the caller: (nil, false).
//
// # Providers
//
// A provider returns (nil, nil) for an id it does not know. Any error from
// the primary counts as a failure toward the health gate; errors from the
// backup are logged and end the lookup.
//
// NewFromFile builds the providers from configuration. The primary can be a
// Redis document store or a DynamoDB table; the backup is a SQL table on
// sqlite, PostgreSQL (pgx) or MySQL.
//
//	client, err := billboard.NewFromFile("billboard.json")
//
// # Cache Levels
//
//   - memory-only: bigcache in process (default)
//   - redis-only: shared Redis behind a circuit breaker
//   - memory-then-redis: memory first, then Redis; Redis hits are copied into memory
//
//	cfg := billboard.Config()
//	cfg.Cache.Level = "memory-then-redis"
//	cfg.Redis.Address = "localhost:6379"
//	client, err := billboard.NewFromConfig(cfg, primary, backup)
//
// # Concurrency
//
// With lookup.lockMode "per-key" (default) concurrent lookups for the same
// id share one resolution and different ids proceed independently. "global"
// serializes every lookup behind one lock.
//
// # Observability
//
// Client.Metrics returns in-process counters and latency percentiles. When
// metrics.enabled is set a background publisher sends a health sample to
// DataDog (metrics.datadog.enabled) or to the logger at metrics.publishInterval.
package billboard
