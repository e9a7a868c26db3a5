package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/config"
	fileloader "flag-quiz-service/internal/infra/file"
	"flag-quiz-service/internal/infra/memory"
	pgloader "flag-quiz-service/internal/infra/postgres"
	redisinfra "flag-quiz-service/internal/infra/redis"
	transport "flag-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "5000"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	datasetPath := cfg.Dataset.Path
	if datasetPath == "" {
		datasetPath = "data/countries.json"
	}
	var loader memory.CountryLoader = fileloader.NewCountryLoader(datasetPath)
	if pool != nil {
		loader = pgloader.NewCountryLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.CountryCatalog
	if redisClient != nil {
		catalog = redisinfra.NewCatalog(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalog(loader, catalogTTL)
	}

	var scoreStore app.ScoreStore
	var progressStore app.ProgressStore
	if redisClient != nil {
		scoreStore = redisinfra.NewScoreStore(redisClient)
		progressStore = redisinfra.NewProgressStore(redisClient)
	} else {
		scoreStore = memory.NewScoreStore()
		progressStore = memory.NewProgressStore()
	}

	questionService := app.NewQuestionService(catalog)
	progressService := app.NewProgressService(scoreStore, progressStore)
	apiHandler := transport.NewAPIHandler(questionService, progressService, catalog)
	feedHandler := transport.NewFeedHandler(progressService)

	mux := http.NewServeMux()
	apiHandler.Register(mux)
	mux.HandleFunc("/ws/leaderboard", feedHandler.ServeWS)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Warm the catalog so a bad dataset shows up in the logs at startup.
	// The server still comes up degraded; only pool-dependent routes fail.
	if countries, err := catalog.Countries(ctx); err != nil {
		log.Printf("country dataset unavailable: %v", err)
	} else {
		log.Printf("loaded %d countries", len(countries))
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting flag quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
