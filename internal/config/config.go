// Package config provides configuration management for the infiltrate server.
//
// Values come from INFILTRATE_* environment variables (a .env file is loaded
// by the entry point before parsing) and may be overridden by CLI flags.
// The Config struct is built once at startup and passed to components during
// initialization.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// Version is the infiltrate application version
	Version = "0.3.0"

	// EnvPrefix prefixes every environment variable read by Parse
	EnvPrefix = "INFILTRATE_"

	// ProviderOpenAI selects any OpenAI-compatible chat completion API
	ProviderOpenAI = "openai"
	// ProviderGemini selects the Google Gemini API
	ProviderGemini = "gemini"

	// DefaultOpenAIBaseURL is ollama's OpenAI-compatible endpoint
	DefaultOpenAIBaseURL = "http://localhost:11434/v1"

	// Validation constraints
	minPort      = 1024
	maxPort      = 65535
	minMaxTokens = 16
	maxMaxTokens = 4096
	minTimeout   = 1 * time.Second
	maxTimeout   = 5 * time.Minute
)

var (
	// ErrInvalidPort is returned when port is out of valid range
	ErrInvalidPort = errors.New("port must be between 1024 and 65535")
	// ErrInvalidLogLevel is returned when log level is not recognized
	ErrInvalidLogLevel = errors.New("log-level must be one of: debug, info, warn, error")
	// ErrInvalidProvider is returned when the LLM provider is unknown
	ErrInvalidProvider = errors.New("llm provider must be one of: openai, gemini")
	// ErrInvalidBaseURL is returned when the LLM base URL is not an http(s) URL
	ErrInvalidBaseURL = errors.New("llm base url must be an absolute http or https URL")
	// ErrMissingModel is returned when no model is configured
	ErrMissingModel = errors.New("llm model is required")
	// ErrInvalidTimeout is returned when the LLM timeout is out of range
	ErrInvalidTimeout = errors.New("llm timeout must be between 1s and 5m")
	// ErrInvalidMaxTokens is returned when the response cap is out of range
	ErrInvalidMaxTokens = errors.New("llm max tokens must be between 16 and 4096")
	// ErrInvalidLLMSeed is returned when llm-seed is negative
	ErrInvalidLLMSeed = errors.New("llm-seed must be >= 0")
	// ErrShowHelp is returned when --help flag is requested
	ErrShowHelp = errors.New("help requested")
	// ErrShowVersion is returned when --version flag is requested
	ErrShowVersion = errors.New("version requested")
)

// Config holds all configuration values for the infiltrate server.
type Config struct {
	// Server configuration
	Port int `env:"PORT" envDefault:"8080"`

	// SecretKey signs session cookies. Empty means a random key is generated
	// at startup, which invalidates sessions on restart.
	SecretKey string `env:"SECRET_KEY"`

	// LLM configuration
	LLMProvider  string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMBaseURL   string        `env:"LLM_BASE_URL"`
	LLMAPIKey    string        `env:"LLM_API_KEY" envDefault:"ollama"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"mistral:7b"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"20s"`
	LLMMaxTokens int           `env:"LLM_MAX_TOKENS" envDefault:"256"`
	// LLMSeed fixes the sampling seed for reproducible replies. 0 = unset.
	LLMSeed int64 `env:"LLM_SEED" envDefault:"0"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// OTelEndpoint enables OTLP trace export when set.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	// Internal flags
	showHelp    bool
	showVersion bool
}

// Parse reads the environment, then applies CLI flags on top of it.
// It returns the parsed Config or an error if validation fails.
// If --help or --version is requested, the output is printed and
// ErrShowHelp or ErrShowVersion is returned.
func Parse(args []string, output io.Writer) (*Config, error) {
	c := &Config{}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("infiltrate", flag.ContinueOnError)
	fs.SetOutput(output)

	// Flags default to the environment so they only override when given.
	fs.IntVar(&c.Port, "port", c.Port, "HTTP server port")
	fs.StringVar(&c.LLMProvider, "llm-provider", c.LLMProvider, "LLM provider (openai, gemini)")
	fs.StringVar(&c.LLMBaseURL, "llm-url", c.LLMBaseURL, "LLM API base URL")
	fs.StringVar(&c.LLMModel, "llm-model", c.LLMModel, "LLM model name")
	fs.Int64Var(&c.LLMSeed, "llm-seed", c.LLMSeed, "LLM seed for reproducible replies (0 = random)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Special flags
	fs.BoolVar(&c.showHelp, "help", false, "Show help message")
	fs.BoolVar(&c.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.showHelp {
		printHelp(output)
		return nil, ErrShowHelp
	}

	if c.showVersion {
		printVersion(output)
		return nil, ErrShowVersion
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate checks that all configuration values are within valid ranges
func (c *Config) validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return ErrInvalidPort
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.LLMBaseURL == "" {
			c.LLMBaseURL = DefaultOpenAIBaseURL
		}
		if err := validateBaseURL(c.LLMBaseURL); err != nil {
			return err
		}
	case ProviderGemini:
		// Empty keeps the client's default endpoint.
		if c.LLMBaseURL != "" {
			if err := validateBaseURL(c.LLMBaseURL); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidProvider
	}

	if c.LLMModel == "" {
		return ErrMissingModel
	}

	if c.LLMTimeout < minTimeout || c.LLMTimeout > maxTimeout {
		return ErrInvalidTimeout
	}

	if c.LLMMaxTokens < minMaxTokens || c.LLMMaxTokens > maxMaxTokens {
		return ErrInvalidMaxTokens
	}

	if c.LLMSeed < 0 {
		return ErrInvalidLLMSeed
	}

	return nil
}

// validateBaseURL rejects anything but absolute http(s) URLs.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return nil
}

// printHelp prints usage information
func printHelp(w io.Writer) {
	fmt.Fprintf(w, `infiltrate - Office Infiltration, a prompt injection puzzle game

USAGE:
    infiltrate [FLAGS]

FLAGS:
    --port <PORT>              HTTP server port (env: %[1]sPORT)
    --llm-provider <NAME>      openai or gemini (env: %[1]sLLM_PROVIDER)
    --llm-url <URL>            LLM API base URL (env: %[1]sLLM_BASE_URL)
    --llm-model <MODEL>        LLM model name (env: %[1]sLLM_MODEL)
    --llm-seed <SEED>          Fixed LLM seed, 0 = random (env: %[1]sLLM_SEED)
    --log-level <LEVEL>        debug, info, warn, error (env: %[1]sLOG_LEVEL)
    --help                     Show this help message
    --version                  Show version information

ENVIRONMENT ONLY:
    %[1]sLLM_API_KEY           API key sent to the LLM backend
    %[1]sLLM_TIMEOUT           Per-question backend timeout (default 20s)
    %[1]sLLM_MAX_TOKENS        Reply length cap (default 256)
    %[1]sSECRET_KEY            Session signing key (default: random per process)
    %[1]sOTEL_ENDPOINT         OTLP/HTTP trace endpoint (default: disabled)

A .env file in the working directory is loaded before the environment is read.

EXAMPLES:
    # Play against a local ollama
    infiltrate

    # Use a hosted OpenAI-compatible API
    %[1]sLLM_BASE_URL=https://api.openai.com/v1 %[1]sLLM_API_KEY=sk-... \
        infiltrate --llm-model gpt-4o-mini
`, EnvPrefix)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "infiltrate %s\n", Version)
}
