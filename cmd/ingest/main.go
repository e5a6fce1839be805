package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"finbot/internal/chunker"
	"finbot/internal/config"
	"finbot/internal/domain/models"
	"finbot/internal/llm"
	"finbot/internal/ocr"
	"finbot/internal/repository/postgres"
	"finbot/internal/service/agent/tools"
	"finbot/internal/service/ingest"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before ingesting (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't ingest documents")
	csvPath := flag.String("csv", "", "CSV of documents to ingest: gr_no,date,branch,subject_en,subject_gu,pdf_url")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" && *dropTables {
		log.Fatal("BLOCKED: refusing --drop-tables in the prod environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Printf("Ensuring schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	if err := runSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}
	if *csvPath == "" {
		log.Println("No --csv given; nothing to ingest")
		return
	}

	docs, err := readSeedCSV(*csvPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *csvPath, err)
	}
	log.Printf("Ingesting %d documents", len(docs))

	pipeline := buildPipeline(cfg, pool, tables, logger)

	failed := 0
	for i, doc := range docs {
		log.Printf("[%d/%d] %s", i+1, len(docs), doc.PdfURL)
		report, err := pipeline.Ingest(ctx, doc)
		if err != nil {
			// One unreadable scan must not sink the whole batch.
			log.Printf("  FAILED: %v", err)
			failed++
			continue
		}
		log.Printf("  indexed: doc_id=%s pages=%d chunks=%d", report.DocID, report.PageCount, report.ChunkCount)
	}
	log.Printf("Done: %d succeeded, %d failed", len(docs)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func buildPipeline(cfg *config.Config, pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) *ingest.Pipeline {
	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}

	embedder, err := llm.NewEmbeddingClient(llm.EmbeddingConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.EmbeddingModel,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	return ingest.NewPipeline(
		tools.NewFetcher(),
		ocr.NewClient(ocr.ClientConfig{ServiceURL: cfg.OCRServiceURL}),
		chunker.NewRecursiveSplitter(config.ChunkSize, config.ChunkOverlap),
		embedder,
		postgres.NewDocumentRepository(repoConfig),
		postgres.NewChunkRepository(repoConfig),
		postgres.NewTransactionManager(pool),
		logger,
	)
}

// readSeedCSV parses the seed manifest. Header row is required; the date
// column may be empty for GRs whose issue date is unknown.
func readSeedCSV(path string) ([]*models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var docs []*models.Document
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", line, len(record))
		}

		doc := &models.Document{
			GrNo:      record[0],
			Branch:    record[2],
			SubjectEn: record[3],
			SubjectGu: record[4],
			PdfURL:    record[5],
		}
		if record[1] != "" {
			date, err := time.Parse("2006-01-02", record[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: date: %w", line, err)
			}
			doc.Date = &date
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return err
	}

	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			gr_no TEXT NOT NULL,
			date DATE,
			branch TEXT NOT NULL,
			subject_en TEXT NOT NULL DEFAULT '',
			subject_gu TEXT NOT NULL DEFAULT '',
			pdf_url TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			doc_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			chunk_no INT NOT NULL,
			body TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (doc_id, chunk_no)
		)
	`, tables.Chunks, tables.Documents, config.EmbeddingDim)
	if _, err := pool.Exec(ctx, createChunks); err != nil {
		return err
	}

	// ivfflat needs rows to build useful lists; created up front it still
	// works, just unoptimized until enough data lands.
	createIndex := `
		CREATE INDEX IF NOT EXISTS ` + tables.Chunks + `_embedding_idx
		ON ` + tables.Chunks + ` USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`
	if _, err := pool.Exec(ctx, createIndex); err != nil {
		return err
	}

	createTurns := `
		CREATE TABLE IF NOT EXISTS ` + tables.ChatTurns + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT,
			tool_calls JSONB,
			tool_call_id TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createTurns); err != nil {
		return err
	}

	createTurnsIndex := `
		CREATE INDEX IF NOT EXISTS ` + tables.ChatTurns + `_session_idx
		ON ` + tables.ChatTurns + ` (user_id, session_id, id)
	`
	if _, err := pool.Exec(ctx, createTurnsIndex); err != nil {
		return err
	}

	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.ChatTurns, tables.Chunks, tables.Documents} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}
	return nil
}
