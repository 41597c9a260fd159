package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cpic-rag/internal/api"
	"cpic-rag/internal/chromemdb"
	"cpic-rag/internal/config"
	"cpic-rag/internal/db"
	"cpic-rag/internal/embedding"
	"cpic-rag/internal/fetcher"
	"cpic-rag/internal/ingestion"
	"cpic-rag/internal/llmservice"
	"cpic-rag/internal/parser"
	"cpic-rag/internal/phenotype"
	"cpic-rag/internal/rag"
)

const collectionName = "cpic_guidelines"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	bunDB := db.NewDB(sqldb, cfg.Database.Debug)
	defer bunDB.Close()

	ctx := context.Background()
	if err := db.InitDB(ctx, bunDB); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	llm, err := llmservice.NewClient(&cfg.InferenceLLM, &cfg.RAG)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	index := chromemdb.NewVectorIndex(cfg.Paths.IndexDir, collectionName, embedder)
	store := db.NewGuidelineStore(bunDB)
	cache := db.NewDiplotypeCache(bunDB)
	fetch := fetcher.New(cfg.Paths.PairsSheet, cfg.Paths.PDFDir)

	var docParser ingestion.DocumentParser
	if cfg.Unstructured.Key != "" {
		docParser = parser.NewUnstructuredClient(&cfg.Unstructured)
	} else {
		log.Warn().Msg("No Unstructured API key configured, using local PDF parser")
		docParser = parser.NewLocalPDFParser()
	}

	ingestSvc := ingestion.NewService(store, index, fetch, docParser)
	ragSvc := rag.NewService(index, llm, cfg.RAG.TopK)
	resolver := phenotype.NewResolver(phenotype.NewAPIClient(&cfg.CPIC), cache)

	handler := api.NewHandler(ingestSvc, ragSvc, resolver, fetch.Locator(), store, index, cfg.EmbedLLM.Model)
	app := api.SetupRouter(handler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down")
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("Starting CPIC RAG API")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
