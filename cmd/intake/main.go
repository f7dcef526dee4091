package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"garasiku/internal/config"
	"garasiku/internal/intake"
	"garasiku/internal/server"
	"garasiku/internal/util"
	"garasiku/internal/webhooktoken"
	"garasiku/pkg/ai"
	"garasiku/pkg/storage"
	"garasiku/pkg/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		util.InitLogger("info")
		util.Fatal("load config", "err", err)
	}
	util.InitLogger(cfg.LogLevel)

	ttl, err := config.ParseConversationTTL(cfg.ConversationTTL)
	if err != nil {
		util.Fatal("invalid config", "err", err)
	}

	vehicles, err := store.NewGormVehicleStore(cfg.DatabaseURL)
	if err != nil {
		util.Fatal("init vehicle store", "err", err)
	}
	conversations := store.NewRedisConversationStore(cfg.RedisAddr, cfg.RedisPassword, ttl)

	objects, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		util.Fatal("init object store", "err", err)
	}
	media := storage.NewMediaStore(objects)

	gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		util.Fatal("init gemini client", "err", err)
	}
	generator := ai.NewGeminiGenerator(gemini, cfg.GenerationModel)
	vision := ai.NewGeminiVision(gemini, cfg.VisionModel)

	pipeline := intake.NewPipeline(intake.Config{
		Conversations: conversations,
		Vehicles:      vehicles,
		Media:         media,
		Extractor:     intake.NewExtractor(generator),
		Enhancer:      intake.NewEnhancer(generator, vision, media),
	})

	verifier, err := webhooktoken.NewVerifier(cfg.WebhookSecret)
	if err != nil {
		util.Fatal("init webhook verifier", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(pipeline, verifier, vehicles).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("intake service listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if cfg.AMQPURL != "" && cfg.InboundQueue != "" && cfg.OutboundQueue != "" {
		consumer := server.NewConsumer(cfg.AMQPURL, cfg.InboundQueue, cfg.OutboundQueue, pipeline)
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	} else {
		slog.Info("amqp consumer disabled", "reason", "amqpURL or queues not configured")
	}

	if err := g.Wait(); err != nil {
		util.Fatal("intake service stopped", "err", err)
	}
	slog.Info("intake service stopped")
}
