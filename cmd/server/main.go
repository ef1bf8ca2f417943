package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"fleetwatch/internal/auth"
	"fleetwatch/internal/config"
	"fleetwatch/internal/domain"
	"fleetwatch/internal/engine"
	"fleetwatch/internal/handlers"
	"fleetwatch/internal/source"
	"fleetwatch/internal/summarizer"
	"fleetwatch/internal/transport"
)

func main() {
	// Setup structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments use the environment directly
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trips, err := buildSourceChain(ctx, cfg).LoadTrips(ctx)
	if err != nil {
		slog.Error("failed to load trips", "error", err)
		os.Exit(1)
	}
	slog.Info("trip roster loaded", "trips", len(trips))

	eng := engine.New(trips).
		WithTickInterval(time.Duration(cfg.TickIntervalMS) * time.Millisecond)
	eng.SetSpeed(cfg.DefaultSpeed)

	verifier := auth.NewVerifier(cfg.TokenSecret)

	sum := summarizer.New(cfg.SummarizerAPIKey).
		WithEndpoint(cfg.SummarizerURL, cfg.SummarizerModel)

	// Replay + push transports
	stream := transport.NewSSEStream(eng.Timeline, verifier.Verify)
	hub := transport.NewHub(eng, eng, verifier.Verify)
	go hub.Run(ctx)
	eng.Subscribe(hub.Broadcast)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rt := transport.NewRedisTransport(redisClient, eng)
		go rt.Run(ctx)
		eng.Subscribe(func(ev domain.Event) {
			if !ev.Type.IsAlert() {
				return
			}
			if err := rt.PublishAlert(ctx, ev); err != nil {
				slog.Warn("failed to publish alert", "event_id", ev.ID, "error", err)
			}
		})
		slog.Info("redis transport enabled", "addr", cfg.RedisAddr)
	}

	if cfg.KinesisStream != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		consumer := transport.NewKinesisConsumer(
			kinesis.NewFromConfig(awsCfg), cfg.KinesisStream, eng)
		consumer.Start(ctx)
		slog.Info("kinesis transport enabled", "stream", cfg.KinesisStream)
	}

	go eng.Run(ctx)

	httpHandler := handlers.NewHTTPHandler(eng, sum, stream, hub)
	router := mux.NewRouter()
	httpHandler.RegisterRoutes(router)
	router.Use(corsMiddleware)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("fleetwatch server starting", "port", cfg.HTTPPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("fleetwatch server failed", "error", err)
		os.Exit(1)
	}
}

// buildSourceChain assembles the roster fallback chain from whatever is
// configured: remote config URL, DynamoDB roster, local files, then the
// synthetic generator so the server always has something to show.
func buildSourceChain(ctx context.Context, cfg *config.Config) *source.Chain {
	var sources []source.Source
	if cfg.TripConfigURL != "" {
		sources = append(sources, source.NewRemoteConfigSource(cfg.TripConfigURL, cfg.TripDataDir))
	}
	if cfg.DynamoTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Warn("skipping DynamoDB trip source, AWS config failed", "error", err)
		} else {
			sources = append(sources, source.NewDynamoSource(
				dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable))
		}
	}
	sources = append(sources,
		source.NewFileSource(cfg.TripConfigPath, cfg.TripDataDir),
		source.NewSyntheticSource(cfg.SyntheticSeed),
	)
	return source.NewChain(sources...)
}

// corsMiddleware adds CORS headers for frontend access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
