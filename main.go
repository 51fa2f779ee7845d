package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fabfab/doc-explorer/api"
	"github.com/fabfab/doc-explorer/chat"
	"github.com/fabfab/doc-explorer/config"
	"github.com/fabfab/doc-explorer/embeddings"
	"github.com/fabfab/doc-explorer/ingestion"
	"github.com/fabfab/doc-explorer/llm"
	"github.com/fabfab/doc-explorer/session"
)

const defaultConfigPath = "config.yaml"

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	switch os.Args[1] {
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "repl":
		replCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	default:
		logger.Error().Str("command", os.Args[1]).Msg("unknown command")
		printUsage()
		os.Exit(1)
	}
}

func newSession(cfg config.Config, logger zerolog.Logger) (*session.Session, error) {
	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	svc := chat.NewService(embedder, llmClient, logger)
	return session.New(svc, cfg.Session, logger)
}

func askCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	file := flags.String("file", "", "path to the document to explore")
	question := flags.String("question", "", "question to ask about the document")
	chunkSize := flags.Int("chunk-size", cfg.Session.ChunkSize, "chunk width in characters")
	topK := flags.Int("top-k", cfg.Session.TopK, "number of chunks kept as context")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse ask flags")
	}

	if *file == "" || strings.TrimSpace(*question) == "" {
		logger.Fatal().Msg("ask requires both -file and -question")
	}

	cfg.Session.ChunkSize = *chunkSize
	cfg.Session.TopK = *topK
	if err := config.Validate(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid settings")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := newSession(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("session setup")
	}

	text, err := ingestion.ReadDocument(*file)
	if err != nil {
		logger.Fatal().Err(err).Msg("load document")
	}
	sess.SetDocument(text)

	answer, err := sess.Ask(ctx, *question)
	if err != nil {
		logger.Fatal().Err(err).Msg("ask failed")
	}

	fmt.Println(answer)
	if sess.State() == session.StateAnswered {
		fmt.Println()
		fmt.Println("Top chunk:")
		fmt.Println(sess.TopChunk())
	}
}

func replCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("repl", flag.ExitOnError)
	file := flags.String("file", "", "document to load on startup")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse repl flags")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := newSession(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("session setup")
	}

	if *file != "" {
		text, err := ingestion.ReadDocument(*file)
		if err != nil {
			logger.Fatal().Err(err).Msg("load document")
		}
		sess.SetDocument(text)
	}

	fmt.Println("Commands: load <file> | chunksize <n> | topk <n> | ask <question> | answer | chunk | quit")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "load":
			text, err := ingestion.ReadDocument(arg)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			sess.SetDocument(text)
			fmt.Printf("loaded %d chunks\n", len(sess.Chunks()))
		case "chunksize":
			size, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Println("error: chunk size must be a number")
				continue
			}
			if err := sess.SetChunkSize(size); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("rechunked into %d chunks\n", len(sess.Chunks()))
		case "topk":
			k, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Println("error: top-k must be a number")
				continue
			}
			if err := sess.SetTopK(k); err != nil {
				fmt.Println("error:", err)
			}
		case "ask":
			answer, err := sess.Ask(ctx, arg)
			if err != nil {
				if errors.Is(err, session.ErrSuperseded) {
					continue
				}
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(answer)
		case "answer":
			fmt.Println(sess.Answer())
		case "chunk":
			fmt.Println(sess.TopChunk())
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", command)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal().Err(err).Msg("read input")
	}
}

func serveCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "address to listen on")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse serve flags")
	}

	server, err := api.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("server setup")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", *addr).Msg("serving HTTP API")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func printUsage() {
	fmt.Println("Usage: doc-explorer <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ask     Answer a single question about a document (-file, -question)")
	fmt.Println("  repl    Interactive session for exploring a document")
	fmt.Println("  serve   Serve the question-answering session over HTTP")
}
