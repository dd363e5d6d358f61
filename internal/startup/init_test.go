package startup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hurricanerix/infiltrate/internal/config"
	"github.com/hurricanerix/infiltrate/internal/levels"
	"github.com/hurricanerix/infiltrate/internal/llm"
	"github.com/hurricanerix/infiltrate/internal/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:         8080,
		LLMProvider:  config.ProviderOpenAI,
		LLMBaseURL:   config.DefaultOpenAIBaseURL,
		LLMAPIKey:    "ollama",
		LLMModel:     "mistral:7b",
		LLMTimeout:   20 * time.Second,
		LLMMaxTokens: 256,
		LogLevel:     "info",
	}
}

func TestCreateLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug"}

	logger := CreateLogger(cfg)

	if logger == nil {
		t.Fatal("CreateLogger() returned nil")
	}
	if logger.GetLevel() != logging.LevelDebug {
		t.Errorf("GetLevel() = %v, want debug", logger.GetLevel())
	}
}

func TestCreateLevels(t *testing.T) {
	registry, paths, controller, err := CreateLevels(nil)
	if err != nil {
		t.Fatalf("CreateLevels() error = %v", err)
	}

	if registry.Count() != 5 {
		t.Errorf("Count() = %d, want 5", registry.Count())
	}
	if controller.Registry() != registry {
		t.Error("controller uses a different registry")
	}
	if p, _ := paths.Path(registry.First()); p != levels.StartPath {
		t.Errorf("first level path = %q, want %q", p, levels.StartPath)
	}
}

func TestCreateLevels_EntropyFailure(t *testing.T) {
	if _, _, _, err := CreateLevels(strings.NewReader("short")); err == nil {
		t.Error("CreateLevels() with exhausted entropy should fail")
	}
}

func TestCreateBackend(t *testing.T) {
	backend, err := CreateBackend(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}

	client, ok := backend.(*llm.OpenAIClient)
	if !ok {
		t.Fatalf("CreateBackend() = %T, want *llm.OpenAIClient", backend)
	}
	if client.BaseURL() != config.DefaultOpenAIBaseURL {
		t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), config.DefaultOpenAIBaseURL)
	}
}

func TestCreateBackend_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLMProvider = "carrier-pigeon"

	_, err := CreateBackend(context.Background(), cfg)
	if !errors.Is(err, config.ErrInvalidProvider) {
		t.Errorf("error = %v, want ErrInvalidProvider", err)
	}
}

func TestCreateSigner(t *testing.T) {
	t.Run("configured key", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = "configured-secret"

		a, err := CreateSigner(cfg, nil, logging.Discard())
		if err != nil {
			t.Fatalf("CreateSigner() error = %v", err)
		}
		b, _ := CreateSigner(cfg, nil, logging.Discard())

		token, err := a.Sign("6f1c8f8e-3a3b-4c1e-9d55-1f0e8b0b7a10")
		if err != nil {
			t.Fatalf("Sign() error = %v", err)
		}
		if _, err := b.Verify(token); err != nil {
			t.Errorf("signers with the same key disagree: %v", err)
		}
	})

	t.Run("random key warns", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(logging.LevelWarn, &buf)

		a, err := CreateSigner(testConfig(), nil, logger)
		if err != nil {
			t.Fatalf("CreateSigner() error = %v", err)
		}
		b, _ := CreateSigner(testConfig(), nil, logger)

		token, _ := a.Sign("6f1c8f8e-3a3b-4c1e-9d55-1f0e8b0b7a10")
		if _, err := b.Verify(token); err == nil {
			t.Error("random keys should differ between signers")
		}
		if !strings.Contains(buf.String(), "SECRET_KEY") {
			t.Errorf("expected warning about SECRET_KEY, got %q", buf.String())
		}
	})

	t.Run("entropy failure", func(t *testing.T) {
		_, err := CreateSigner(testConfig(), strings.NewReader(""), logging.Discard())
		if err == nil {
			t.Error("CreateSigner() with no entropy should fail")
		}
	})
}

func TestInitializeAll(t *testing.T) {
	logger := logging.Discard()

	components, err := InitializeAll(context.Background(), testConfig(), logger)
	if err != nil {
		t.Fatalf("InitializeAll() error = %v", err)
	}
	t.Cleanup(func() { Cleanup(components) })

	if components.WebServer == nil {
		t.Error("WebServer is nil")
	}
	if components.Gateway == nil {
		t.Error("Gateway is nil")
	}
	if components.Sessions == nil {
		t.Error("Sessions is nil")
	}
	if components.ShutdownTracing == nil {
		t.Error("ShutdownTracing is nil")
	}
	if got := components.WebServer.Addr(); got != "localhost:8080" {
		t.Errorf("Addr() = %q, want localhost:8080", got)
	}
}

func TestInitializeAll_InvalidProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLMProvider = "bogus"

	if _, err := InitializeAll(context.Background(), cfg, logging.Discard()); err == nil {
		t.Error("InitializeAll() with bad provider should fail")
	}
}
