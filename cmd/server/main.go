// Package main runs the token issuance service:
// - Ledger: serialized factory invocations over an HTTP API
// - Journal: append-only invocation log, replayed on startup
// - Mirrors: PostgreSQL registry + ClickHouse issuance events
// - Feed: WebSocket broadcast of committed events
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"token-factory/internal/domain"
	"token-factory/internal/feed"
	"token-factory/internal/ledger"
	"token-factory/internal/observability"
	"token-factory/internal/storage"
	chstore "token-factory/internal/storage/clickhouse"
	"token-factory/internal/storage/memory"
	"token-factory/internal/storage/migrations"
	pgstore "token-factory/internal/storage/postgres"
)

// Server wires the ledger to its mirrors, feed and HTTP API.
type Server struct {
	ledger *ledger.Ledger
	hub    *feed.Hub
	stores *allStores
	logger *log.Logger

	started time.Time
}

// allStores holds the durable mirror stores.
type allStores struct {
	registryStore storage.RegistryStore
	eventStore    storage.IssuanceEventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory mirrors instead of PostgreSQL/ClickHouse")
	admin := flag.String("admin", os.Getenv("FACTORY_ADMIN"), "Factory administrator identity")
	treasury := flag.String("treasury", os.Getenv("FACTORY_TREASURY"), "Treasury account identity")
	factoryID := flag.String("factory-id", os.Getenv("FACTORY_ID"), "Namespace for derived token addresses (defaults to admin)")
	baseFee := flag.Uint64("base-fee", envUint("FACTORY_BASE_FEE", 70_000_000), "Fee charged by create_token and mint_tokens")
	metadataFee := flag.Uint64("metadata-fee", envUint("FACTORY_METADATA_FEE", 30_000_000), "Fee charged by set_metadata")
	journalPath := flag.String("journal", envOr("FACTORY_JOURNAL", "factory.journal"), "Invocation journal path (empty disables journaling)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *admin == "" {
		logger.Fatal("--admin is required")
	}
	if *treasury == "" {
		logger.Fatal("--treasury is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory mirrors)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create mirror stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Replay journal before opening it for appends, so recovery sees the
	// file as it was left by the previous run.
	var entries []ledger.JournalEntry
	var journal *ledger.Journal
	if *journalPath != "" {
		if _, statErr := os.Stat(*journalPath); statErr == nil {
			entries, err = ledger.ReadJournal(*journalPath)
			if err != nil {
				logger.Fatalf("Failed to read journal: %v", err)
			}
		} else if !os.IsNotExist(statErr) {
			logger.Fatalf("Failed to stat journal: %v", statErr)
		}

		journal, err = ledger.OpenJournal(*journalPath)
		if err != nil {
			logger.Fatalf("Failed to open journal: %v", err)
		}
		defer journal.Close()
	}

	led := ledger.New(ledger.Options{
		Administrator: *admin,
		Treasury:      *treasury,
		Fees: domain.FeeSchedule{
			BaseFee:     *baseFee,
			MetadataFee: *metadataFee,
		},
		FactoryID: *factoryID,
		Journal:   journal,
		Logger:    logger,
	})

	if len(entries) > 0 {
		n, err := led.Replay(entries)
		if err != nil {
			logger.Fatalf("Journal replay failed after %d entries: %v", n, err)
		}
		summary := led.Summarize()
		logger.Printf("Replayed %d journal entries: version=%d tokens=%d treasury=%d",
			n, summary.Version, summary.RegistrySize, summary.TreasuryBalance)
	}

	// Event feed
	hub := feed.NewHub(nil, log.New(os.Stdout, "[feed] ", log.LstdFlags))
	defer hub.Close()

	server := &Server{
		ledger:  led,
		hub:     hub,
		stores:  stores,
		logger:  logger,
		started: time.Now(),
	}

	// Subscribers run after commit; ledger state is authoritative and
	// mirror failures must not fail the invocation.
	led.Subscribe(server.mirrorEvent)
	led.Subscribe(func(event domain.IssuanceEvent) {
		hub.Publish(&event)
	})

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}

		// Second signal forces immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	logger.Printf("Starting HTTP server on %s (admin=%s treasury=%s base_fee=%d metadata_fee=%d)",
		*listenAddr, *admin, *treasury, *baseFee, *metadataFee)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the mirror stores and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			registryStore: memory.NewRegistryStore(),
			eventStore:    memory.NewIssuanceEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
		chConn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("apply clickhouse migrations: %w", err)
	}

	stores := &allStores{
		registryStore: pgstore.NewRegistryStore(pool),
		eventStore:    chstore.NewIssuanceEventStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// mirrorEvent pushes one committed event into the durable mirrors. Mirror
// errors are logged; the ledger has already committed.
func (s *Server) mirrorEvent(event domain.IssuanceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch event.EventType {
	case domain.EventTokenCreated:
		observability.RecordTokenCreated(event.FeePaid)
		info, err := s.ledger.TokenInfo(event.TokenAddress)
		if err != nil {
			s.logger.Printf("mirror: lookup created token %s: %v", event.TokenAddress, err)
			break
		}
		if err := s.stores.registryStore.Insert(ctx, &info.CreationRecord); err != nil {
			s.logger.Printf("mirror: insert creation record %s: %v", event.TokenAddress, err)
		}
	case domain.EventMetadataSet:
		observability.RecordMetadataSet(event.FeePaid)
		info, err := s.ledger.TokenInfo(event.TokenAddress)
		if err != nil {
			s.logger.Printf("mirror: lookup token %s: %v", event.TokenAddress, err)
			break
		}
		uri, present := info.Metadata.URI()
		if !present {
			break
		}
		err = s.stores.registryStore.SetMetadata(ctx, event.TokenAddress, uri)
		if err != nil && err != storage.ErrMetadataRecorded {
			s.logger.Printf("mirror: set metadata %s: %v", event.TokenAddress, err)
		}
	case domain.EventTokensMinted:
		observability.RecordMint(event.Amount, event.FeePaid)
	}

	if err := s.stores.eventStore.Insert(ctx, &event); err != nil {
		s.logger.Printf("mirror: insert event v%d: %v", event.StateVersion, err)
	}
}

// envOr returns the environment value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envUint returns the environment value parsed as uint64, or a default.
func envUint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
