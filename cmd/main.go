package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/rag"
	"docqa/internal/session"
)

const (
	configFilePath = "./configs/config.yaml"

	// sourcePreviewChars bounds how much of each source chunk is printed
	// under an answer.
	sourcePreviewChars = 200
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	query := flag.String("query", "", "Question to ask about the document")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	embedService := embedding.NewService(embedder, &cfg.Embedding)

	client, err := llmservice.NewOpenAIClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing language model client")
	}

	sess := session.New(cfg, embedService, client)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document file")
	}

	var bar *progressbar.ProgressBar
	sess.OnProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "indexing")
		}
		_ = bar.Set(done)
	})

	ctx := context.Background()
	if err := sess.LoadDocument(ctx, data, filepath.Base(*filePath)); err != nil {
		log.Fatal().Err(err).Msg("Error loading document")
	}
	info := sess.Info()
	log.Info().Str("source", info.Source).Int("chunks", info.Chunks).Msg("document ready")

	if *query != "" {
		ask(ctx, sess, *query)
		return
	}

	fmt.Println("Ask questions about the document (empty line to exit).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}
		ask(ctx, sess, question)
	}
}

func ask(ctx context.Context, sess *session.Session, question string) {
	answer, err := sess.Ask(ctx, question)
	if err != nil {
		if errors.Is(err, rag.ErrNoContext) {
			fmt.Printf("\n%s\n\n", answer.Text)
			return
		}
		log.Error().Err(err).Msg("Error answering question")
		return
	}

	fmt.Printf("\n%s\n\n", answer.Text)
	if answer.Status == models.StatusPartial {
		log.Warn().Int("dropped_chunks", answer.DroppedChunks).Msg("context was clipped to fit the model budget")
	}
	for _, src := range answer.Sources {
		fmt.Printf("[Source %d] %s\n", src.Index, preview(src.Text))
	}
	fmt.Println()
}

func preview(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= sourcePreviewChars {
		return string(runes)
	}
	return string(runes[:sourcePreviewChars]) + "..."
}
