package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fractalmind-ai/labelkit/internal/config"
	"github.com/fractalmind-ai/labelkit/internal/embedding"
	"github.com/fractalmind-ai/labelkit/internal/gateway"
	"github.com/fractalmind-ai/labelkit/internal/processor"
	"github.com/fractalmind-ai/labelkit/internal/word2vec"
	"github.com/fractalmind-ai/labelkit/pkg/protocol"
	"github.com/schollz/progressbar/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(runWithContext(ctx, os.Args[1:], os.Stderr))
}

func runWithContext(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("labelkit", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "./config.yaml", "path to config file")
	portOverride := fs.Int("port", 0, "override gateway port")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(out, "", log.LstdFlags)
	if *verbose {
		logger.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Printf("failed to load config: %v", err)
		return 1
	}

	if cfg.Embedding == nil {
		logger.Printf("config has no embedding section")
		return 1
	}
	if cfg.Gateway == nil {
		cfg.Gateway = &config.GatewayConfig{Bind: "127.0.0.1", Port: 18790}
	}
	if *portOverride > 0 {
		cfg.Gateway.Port = *portOverride
	}

	embed, err := buildEmbedding(ctx, cfg.Embedding, out)
	if err != nil {
		logger.Printf("failed to initialize embedding: %v", err)
		return 1
	}

	status := protocol.ModelStatus{
		VectorPath:    embed.VectorPath(),
		TokenCount:    embed.TokenCount(),
		EmbeddingSize: embed.EmbeddingSize(),
		BranchLengths: embed.BranchLengths(),
		TopWords:      embed.TopWords(),
	}
	server, err := gateway.NewServer(cfg, embed, status)
	if err != nil {
		logger.Printf("failed to initialize gateway: %v", err)
		return 1
	}

	if err := server.Start(ctx); err != nil {
		logger.Printf("gateway error: %v", err)
		if err := server.Stop(); err != nil {
			logger.Printf("gateway shutdown error: %v", err)
		}
		return 1
	}

	if err := server.Stop(); err != nil {
		logger.Printf("gateway shutdown error: %v", err)
		return 1
	}

	return 0
}

// buildEmbedding resolves the vector file, loads it, and assembles the
// frozen embedding model from the config.
func buildEmbedding(ctx context.Context, cfg *config.EmbeddingConfig, out io.Writer) (*embedding.WordEmbedding, error) {
	vectorPath, err := resolveVectorPath(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []embedding.Option{
		embedding.WithLoadOptions(word2vec.LoadOptions{
			Binary:   cfg.Binary,
			Limit:    cfg.Limit,
			Progress: loadProgress(out),
		}),
		embedding.WithSequenceLength(servingLength(cfg.ResolvedSequenceLength())),
	}

	if cfg.TokenizerPath != "" {
		tok, err := processor.NewHFTokenizer(cfg.TokenizerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer: %w", err)
		}
		opts = append(opts, embedding.WithTokenizer(tok))
	} else if cfg.Lowercase {
		opts = append(opts, embedding.WithTokenizer(processor.WhitespaceTokenizer{Lowercase: true}))
	}
	if cfg.AddBosEos {
		proc := processor.New()
		proc.AddBosEos = true
		opts = append(opts, embedding.WithProcessor(proc))
	}

	embed, err := embedding.NewWordEmbedding(vectorPath, opts...)
	if err != nil {
		return nil, err
	}
	if err := embed.LoadVectors(); err != nil {
		return nil, err
	}
	if err := embed.BuildModel(); err != nil {
		return nil, err
	}
	return embed, nil
}

func resolveVectorPath(ctx context.Context, cfg *config.EmbeddingConfig) (string, error) {
	if cfg.VectorPath != "" {
		return cfg.VectorPath, nil
	}
	if cfg.VectorURL == "" {
		return "", fmt.Errorf("embedding config needs vectorPath or vectorUrl")
	}
	cacheDir, err := word2vec.ResolveCacheDir(cfg.CacheDir)
	if err != nil {
		return "", err
	}
	id := cfg.VectorID
	if id == "" {
		id = "default"
	}
	return word2vec.EnsureVectorFile(ctx, cacheDir, word2vec.VectorSpec{
		ID:     id,
		URL:    cfg.VectorURL,
		SHA256: cfg.VectorSHA256,
	})
}

// servingLength maps auto length to variable length: the gateway serves
// arbitrary texts and has no corpus to take percentiles from.
func servingLength(s embedding.SequenceLength) embedding.SequenceLength {
	if s.Auto {
		return embedding.VariableLength()
	}
	return s
}

// loadProgress renders a progress bar while the vector file loads.
func loadProgress(out io.Writer) func(loaded, total int) {
	var bar *progressbar.ProgressBar
	prev := 0
	return func(loaded, total int) {
		if total <= 0 {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(total, progressbar.OptionSetWriter(out))
			prev = 0
		}
		if loaded > prev {
			_ = bar.Add(loaded - prev)
			prev = loaded
		}
	}
}
