package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"edugpt/internal/assemble"
	"edugpt/internal/chromemstore"
	"edugpt/internal/config"
	"edugpt/internal/db"
	"edugpt/internal/embedding"
	"edugpt/internal/extract"
	"edugpt/internal/helper"
	"edugpt/internal/history"
	"edugpt/internal/index"
	"edugpt/internal/ingest"
	"edugpt/internal/models"
	"edugpt/internal/rag"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	build := flag.Bool("build", false, "Build the vector index from a corpus directory")
	corpusDir := flag.String("corpus", "", "Corpus directory for -build")
	query := flag.String("query", "", "One-shot question to answer")
	filePath := flag.String("file", "", "Optional document to answer questions about")
	chat := flag.Bool("chat", false, "Interactive chat session")
	showHistory := flag.Bool("history", false, "Print today's conversation history")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := loadConfig(*configPath)
	ctx := context.Background()

	switch {
	case *build:
		if *corpusDir == "" {
			log.Fatal().Msg("-build requires -corpus <dir>")
		}
		buildIndex(ctx, cfg, *corpusDir)
	case *query != "":
		answerOnce(ctx, cfg, *query, *filePath)
	case *chat:
		chatLoop(ctx, cfg, *filePath)
	case *showHistory:
		printHistory(cfg)
	default:
		flag.Usage()
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
			return config.Default()
		}
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

// buildIndex chunks and embeds the corpus, writes the flat index files and
// mirrors the corpus into the configured persistent backend if one is
// selected.
func buildIndex(ctx context.Context, cfg *config.Config, corpusDir string) {
	chunks, err := ingest.LoadCorpus(corpusDir, ingest.Options{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading corpus")
	}
	log.Info().Int("chunks", len(chunks)).Msg("Corpus loaded")

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	idx, err := index.Build(ctx, chunks, embedder.EmbedQuery)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building index")
	}
	if err := idx.Save(cfg.Store.IndexPath, cfg.Store.TextsPath); err != nil {
		log.Fatal().Err(err).Msg("Error saving index")
	}
	log.Info().Int("vectors", idx.Len()).Int("dimension", idx.Dimension()).
		Str("index", cfg.Store.IndexPath).Msg("Index saved")

	switch cfg.Store.Backend {
	case "chromem":
		store, err := chromemstore.New(cfg.Store.ChromemPath, cfg.Store.Collection, false)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening chromem store")
		}
		if err := store.Reset(); err != nil {
			log.Fatal().Err(err).Msg("Error resetting chromem collection")
		}
		if err := store.Add(ctx, idx.Chunks(), idx.Vectors()); err != nil {
			log.Fatal().Err(err).Msg("Error mirroring corpus into chromem")
		}
		log.Info().Int("documents", store.Count()).Msg("Corpus mirrored into chromem")
	case "postgres":
		if idx.Dimension() != db.VectorSize {
			log.Fatal().Int("dimension", idx.Dimension()).Int("expected", db.VectorSize).
				Msg("embedding dimension does not fit the documents table")
		}
		store := db.NewStore(db.Connect(cfg.Store.PostgresURL, cfg.Store.PostgresKey), cfg.Store.Debug)
		defer store.Close()
		if err := store.Drop(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error dropping documents table")
		}
		if err := store.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error initializing documents table")
		}
		if err := store.Add(ctx, idx.Chunks(), idx.Vectors()); err != nil {
			log.Fatal().Err(err).Msg("Error mirroring corpus into postgres")
		}
		log.Info().Msg("Corpus mirrored into postgres")
	}
}

// newRetriever opens the configured vector backend for querying.
func newRetriever(cfg *config.Config) (assemble.Retriever, func()) {
	switch cfg.Store.Backend {
	case "chromem":
		store, err := chromemstore.New(cfg.Store.ChromemPath, cfg.Store.Collection, false)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening chromem store")
		}
		return store, func() {}
	case "postgres":
		store := db.NewStore(db.Connect(cfg.Store.PostgresURL, cfg.Store.PostgresKey), cfg.Store.Debug)
		return store, func() { store.Close() }
	default:
		idx, err := index.Load(cfg.Store.IndexPath, cfg.Store.TextsPath)
		if err != nil {
			log.Warn().Err(err).Msg("No index loaded, answering without corpus retrieval")
			return nil, func() {}
		}
		log.Info().Int("vectors", idx.Len()).Int("dimension", idx.Dimension()).Msg("Index loaded")
		return idx, func() {}
	}
}

func newOrchestrator(cfg *config.Config) (*rag.Orchestrator, func()) {
	retriever, closeStore := newRetriever(cfg)

	var embedder embedding.Embedder
	if retriever != nil {
		var err error
		embedder, err = embedding.New(&cfg.EmbedLLM)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing embedder")
		}
	}

	generator, err := rag.NewLLMGenerator(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	assembler := assemble.New(retriever, embedder, cfg.RAG.TopK, cfg.RAG.MaxContextChars)
	return rag.NewOrchestrator(assembler, generator, cfg.RAG.MaxTokens), closeStore
}

func loadDocument(filePath string) *extract.Document {
	if filePath == "" {
		return nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document")
	}
	doc := extract.NewDocument(filePath, data)
	log.Info().Str("file", filePath).Str("format", doc.Format.String()).Msg("Document attached")
	return &doc
}

func answerOnce(ctx context.Context, cfg *config.Config, question, filePath string) {
	orchestrator, closeStore := newOrchestrator(cfg)
	defer closeStore()

	turn := orchestrator.Answer(ctx, question, loadDocument(filePath))
	fmt.Printf("%s\n", turn.Answer)

	recordTurn(cfg, turn)
}

func chatLoop(ctx context.Context, cfg *config.Config, filePath string) {
	orchestrator, closeStore := newOrchestrator(cfg)
	defer closeStore()

	doc := loadDocument(filePath)

	fmt.Println("EduGPT interactive session. Type your question, or 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		turn := orchestrator.Answer(ctx, question, doc)
		fmt.Printf("\n%s\n\n", turn.Answer)

		recordTurn(cfg, turn)
	}
}

func printHistory(cfg *config.Config) {
	store := history.NewStore(cfg.History.Path)
	turns, err := store.Day(time.Now().Format(models.DateKeyFormat))
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading history")
	}
	if len(turns) == 0 {
		fmt.Println("No conversations recorded today.")
		return
	}
	helper.PrettyPrint(turns)
}

func recordTurn(cfg *config.Config, turn models.ConversationTurn) {
	store := history.NewStore(cfg.History.Path)
	if err := store.Append(turn); err != nil {
		log.Warn().Err(err).Msg("Error recording conversation turn")
	}
}
