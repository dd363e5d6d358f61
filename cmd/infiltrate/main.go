package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/hurricanerix/infiltrate/internal/config"
	"github.com/hurricanerix/infiltrate/internal/startup"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Parse(args, stderr)
	if errors.Is(err, config.ErrShowHelp) || errors.Is(err, config.ErrShowVersion) {
		// Help or version was shown, exit successfully
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := startup.CreateLogger(cfg)

	logger.Info("Starting infiltrate %s...", config.Version)
	logger.Debug("Configuration: port=%d, llm-seed=%d, max-tokens=%d, timeout=%v",
		cfg.Port, cfg.LLMSeed, cfg.LLMMaxTokens, cfg.LLMTimeout)
	logger.Debug("LLM: provider=%s, url=%s, model=%s", cfg.LLMProvider, cfg.LLMBaseURL, cfg.LLMModel)

	ctx := context.Background()

	components, err := startup.InitializeAll(ctx, cfg, logger)
	if err != nil {
		logger.Error("Initialization failed: %v", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer startup.Cleanup(components)

	// The game stays playable without a backend: guards use fallback replies.
	logger.Debug("Validating llm backend...")
	if err := startup.ValidateBackend(ctx, components.Backend, cfg.LLMModel); err != nil {
		logger.Warn("LLM backend check failed: %v", err)
		if cfg.LLMProvider == config.ProviderOpenAI {
			logger.Warn("If you are using ollama, ensure it is running (ollama serve) and the model is pulled (ollama pull %s)", cfg.LLMModel)
		}
	} else {
		logger.Info("Connected to %s backend (model: %s)", cfg.LLMProvider, cfg.LLMModel)
	}

	if err := startup.Run(ctx, components.WebServer, logger); err != nil {
		logger.Error("Server error: %v", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
