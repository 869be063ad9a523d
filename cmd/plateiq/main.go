package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plateiq/internal/api"
	"github.com/plateiq/internal/billing"
	"github.com/plateiq/internal/config"
	"github.com/plateiq/internal/events"
	"github.com/plateiq/internal/insights"
	"github.com/plateiq/internal/intelligence"
	"github.com/plateiq/internal/notify"
	"github.com/plateiq/internal/orchestrator"
	"github.com/plateiq/internal/segment"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/internal/strategy"
	"github.com/plateiq/internal/workflow"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("PlateIQ lifecycle engine version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return
	}

	log.Printf("Starting PlateIQ lifecycle engine v%s (commit: %s, built: %s)", version, commit, date)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event bus, optionally mirrored to Kafka
	var bus events.Bus = events.NewMemoryBus()
	if cfg.Kafka.Enabled {
		mirror := events.NewKafkaMirror(bus, cfg.Kafka.Mirror)
		defer mirror.Close()
		bus = mirror
	}

	// Profile store
	profiles, closeStore, err := buildProfileStore(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to initialize profile store: %v", err)
	}
	defer closeStore(ctx)

	// Health history store
	var history *store.HistoryStore
	if cfg.History.Enabled {
		history, err = store.NewHistoryStore(ctx, cfg.History.DSN)
		if err != nil {
			log.Fatalf("Failed to initialize history store: %v", err)
		}
		defer history.Close()
	}

	// Analysis pipeline and coordinator
	segments := segment.NewEngine()
	svc := intelligence.NewService(profiles, segments, bus)
	metrics := strategy.NewMetricsStore()
	dispatcher := workflow.NewDispatcher(workflow.RunnerFunc(logOnlyRunner), bus, cfg.Workflow)
	coordinator := orchestrator.NewCoordinator(cfg.Orchestrator, bus, metrics, strategy.NewEngine(metrics),
		segments, dispatcher, history, orchestrator.NewCronScheduler())

	if cfg.Notify.Enabled {
		notify.NewNotifier(cfg.Notify.Token, cfg.Notify.Channel).Register(bus)
	}

	if err := coordinator.Start(ctx); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	gateway := api.NewGateway(api.GatewayConfig{
		Host:           cfg.API.Host,
		Port:           cfg.API.Port,
		ReadTimeout:    cfg.API.ReadTimeout,
		WriteTimeout:   cfg.API.WriteTimeout,
		IdleTimeout:    cfg.API.IdleTimeout,
		EnableCORS:     cfg.API.EnableCORS,
		AllowedOrigins: allowedOrigins(cfg.API.AllowedOrigins),
	}, svc, coordinator, history)

	if cfg.Billing.Enabled {
		gateway.WithBilling(billing.NewResolver(cfg.Billing.APIKey))
	}
	if graph, ok := profiles.(*store.Neo4jStore); ok {
		gateway.WithReferrals(graph)
	}
	if cfg.Insights.Enabled {
		gateway.WithInsights(insights.NewDigester(cfg.Insights.APIKey, cfg.Insights.Model))
	}

	go func() {
		if err := gateway.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API gateway failed: %v", err)
		}
	}()

	waitForShutdown(cancel, gateway, coordinator)
}

// logOnlyRunner is the default workflow runner when no external execution
// system is wired in: it logs the request and relies on the external runner
// callback endpoint for results.
func logOnlyRunner(ctx context.Context, req workflow.Request) error {
	log.Printf("Workflow request %s (%s) for customer %q awaiting external runner",
		req.ID, req.Workflow.ID, req.CustomerID)
	return nil
}

func buildProfileStore(cfg config.StoreConfig) (store.ProfileStore, func(context.Context), error) {
	switch cfg.Backend {
	case "neo4j":
		s, err := store.NewNeo4jStore(cfg.Neo4j)
		if err != nil {
			return nil, nil, err
		}
		return s, func(ctx context.Context) {
			if err := s.Close(ctx); err != nil {
				log.Printf("Error closing profile store: %v", err)
			}
		}, nil
	default:
		return store.NewMemoryStore(), func(context.Context) {}, nil
	}
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func waitForShutdown(cancel context.CancelFunc, gateway *api.Gateway, coordinator *orchestrator.Coordinator) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		log.Printf("Error during gateway shutdown: %v", err)
	}
	coordinator.Stop()

	cancel()
	log.Println("PlateIQ lifecycle engine stopped")
}
