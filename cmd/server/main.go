package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"finbot/internal/auth"
	"finbot/internal/capabilities"
	"finbot/internal/chunker"
	"finbot/internal/config"
	"finbot/internal/handler"
	"finbot/internal/llm"
	"finbot/internal/middleware"
	"finbot/internal/ocr"
	"finbot/internal/repository/postgres"
	"finbot/internal/service/agent"
	"finbot/internal/service/agent/tools"
	"finbot/internal/service/ingest"
)

func main() {
	// .env is optional; production configures through the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		logFile, err := config.SetupLogFile(dir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verification is optional in dev, where requests without a
	// token fall back to the configured dev user.
	var jwtVerifier auth.JWTVerifier
	if cfg.SupabaseJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		jwtVerifier = verifier
	} else if cfg.Environment != "dev" {
		log.Fatal("SUPABASE_URL is required outside dev")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	documentRepo := postgres.NewDocumentRepository(repoConfig)
	chunkRepo := postgres.NewChunkRepository(repoConfig)
	historyRepo := postgres.NewHistoryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	chatClient, err := llm.NewClient(llm.ClientConfig{
		BaseURL:   cfg.OpenAIBaseURL,
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.ChatModel,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create chat client: %v", err)
	}
	embedder, err := llm.NewEmbeddingClient(llm.EmbeddingConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.EmbeddingModel,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	ocrClient := ocr.NewClient(ocr.ClientConfig{ServiceURL: cfg.OCRServiceURL})
	fetcher := tools.NewFetcher()

	capRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load capability registry: %v", err)
	}

	toolRegistry := tools.NewRegistry(logger)
	toolRegistry.Register("get_pdf_related_data", tools.NewLookupExecutor(documentRepo, logger))
	toolRegistry.Register("get_pdf_by_content", tools.NewSearchExecutor(embedder, chunkRepo, logger))
	toolRegistry.Register("summarize_pdf", tools.NewSummarizeExecutor(fetcher, ocrClient, chatClient, logger))
	toolRegistry.Register("query_pdf", tools.NewQAExecutor(fetcher, ocrClient, chatClient, logger))

	progressBroker := agent.NewProgressBroker()
	orchestrator := agent.NewOrchestrator(chatClient, capRegistry, toolRegistry, historyRepo, documentRepo, progressBroker, logger)

	splitter := chunker.NewRecursiveSplitter(config.ChunkSize, config.ChunkOverlap)
	pipeline := ingest.NewPipeline(fetcher, ocrClient, splitter, embedder, documentRepo, chunkRepo, txManager, logger)

	chatHandler := handler.NewChatHandler(orchestrator, progressBroker, logger)
	ingestHandler := handler.NewIngestHandler(pipeline, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/sessions/{id}/messages", chatHandler.PostMessage)
	mux.HandleFunc("GET /api/sessions/{id}/messages", chatHandler.ListMessages)
	mux.HandleFunc("GET /api/sessions/{id}/progress", chatHandler.StreamProgress)
	mux.HandleFunc("POST /api/documents/ingest", ingestHandler.Ingest)

	// Middleware chain, innermost first: routes ← auth ← recovery ← CORS.
	var h http.Handler = mux
	h = middleware.Auth(jwtVerifier, cfg.Environment, cfg.DevUserID, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	}).Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // agent turns stream progress over SSE
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
