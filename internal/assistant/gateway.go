// Package assistant answers player questions by forwarding them to a language
// model under the system prompt of the player's current level.
//
// Ask never fails: every backend problem is turned into an in-character or
// generic reply, and details are only written to the server log.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hurricanerix/infiltrate/internal/levels"
	"github.com/hurricanerix/infiltrate/internal/llm"
	"github.com/hurricanerix/infiltrate/internal/logging"
)

// Player-visible replies that do not come from the model.
const (
	// GenericReply is returned for backend errors and unexpected failures.
	GenericReply = "Sorry, something went wrong on my end. Please try asking again."
	// BlankQuestionReply is returned when the question is empty.
	BlankQuestionReply = "You didn't say anything. Type a question first."
	// BlockedReply replaces a reply that leaked a blocked marker.
	BlockedReply = "I'm sorry, I can't help with that request."
)

// Outcomes recorded on the assistant.ask span and in logs.
const (
	OutcomeAnswered    = "answered"
	OutcomeBlocked     = "blocked"
	OutcomeBlank       = "blank"
	OutcomeUnknown     = "unknown_level"
	OutcomeUnreachable = "unreachable"
	OutcomeBackend     = "backend_error"
	OutcomeFailed      = "failed"
)

// DefaultTimeout bounds a question when Options.Timeout is zero.
const DefaultTimeout = 20 * time.Second

// Options holds deployment-level completion settings.
type Options struct {
	Model     string
	Seed      int64
	MaxTokens int
	Timeout   time.Duration
	// Tracer records one span per question. Nil uses the global provider.
	Tracer trace.Tracer
}

// Gateway forwards questions to a Completer. It is safe for concurrent use.
type Gateway struct {
	registry *levels.Registry
	backend  llm.Completer
	opts     Options
	tracer   trace.Tracer
	logger   *logging.Logger
}

// New creates a Gateway.
func New(registry *levels.Registry, backend llm.Completer, opts Options, logger *logging.Logger) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/hurricanerix/infiltrate/internal/assistant")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gateway{
		registry: registry,
		backend:  backend,
		opts:     opts,
		tracer:   tracer,
		logger:   logger,
	}
}

// Ask answers question as the character guarding level. Each call is a single
// independent turn with exactly one backend attempt; the reply is never empty.
func (g *Gateway) Ask(ctx context.Context, level levels.ID, question string) (reply string) {
	ctx, span := g.tracer.Start(ctx, "assistant.ask", trace.WithAttributes(
		attribute.Int("level.id", int(level)),
		attribute.Int("question.length", len(question)),
	))
	outcome := OutcomeFailed
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("assistant panic on level %d: %v", level, r)
			span.SetStatus(codes.Error, "panic")
			outcome = OutcomeFailed
			reply = GenericReply
		}
		span.SetAttributes(attribute.String("assistant.outcome", outcome))
		span.End()
	}()

	if strings.TrimSpace(question) == "" {
		outcome = OutcomeBlank
		return BlankQuestionReply
	}

	def, err := g.registry.Get(level)
	if err != nil {
		g.logger.Warn("assistant asked about level %d: %v", level, err)
		outcome = OutcomeUnknown
		return GenericReply
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.backend.Complete(ctx, llm.Request{
		System:    def.SystemPrompt,
		Prompt:    question,
		Model:     g.opts.Model,
		Seed:      g.opts.Seed,
		MaxTokens: g.opts.MaxTokens,
	})
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		outcome, reply = g.fallback(def, err)
		g.logger.Warn("assistant level %d %s after %v: %v", level, outcome, elapsed, err)
		return reply
	}

	if def.BlockedReplyMarker != "" && strings.Contains(raw, def.BlockedReplyMarker) {
		g.logger.Info("assistant level %d reply blocked (marker %q)", level, def.BlockedReplyMarker)
		outcome = OutcomeBlocked
		return BlockedReply
	}

	g.logger.Debug("assistant level %d answered in %v (%d chars)", level, elapsed, len(raw))
	outcome = OutcomeAnswered
	return raw
}

// fallback picks the reply for a failed completion.
func (g *Gateway) fallback(def levels.Definition, err error) (string, string) {
	switch {
	case errors.Is(err, llm.ErrUnreachable):
		if def.FallbackReply != "" {
			return OutcomeUnreachable, def.FallbackReply
		}
		return OutcomeUnreachable, GenericReply
	case errors.Is(err, llm.ErrBackend):
		return OutcomeBackend, GenericReply
	default:
		return OutcomeFailed, GenericReply
	}
}

// String describes the gateway configuration for startup logs.
func (g *Gateway) String() string {
	return fmt.Sprintf("model=%s timeout=%v max_tokens=%d seed=%d",
		g.opts.Model, g.opts.Timeout, g.opts.MaxTokens, g.opts.Seed)
}
