// Package responder generates natural-language replies for customer chat
// messages, keeping a bounded in-memory conversation per remote party.
package responder

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("realestate.internal.responder")

// emptyReplyFallback is returned when the model produces no usable text.
const emptyReplyFallback = "عذراً، لم أتمكن من فهم سؤالك. يرجى إعادة صياغته."

const generationTimeout = 30 * time.Second

// Service turns inbound customer messages into replies via an LLM,
// enriching the prompt with business and listing context.
type Service struct {
	client  LLMClient
	model   string
	history *History
	logger  *logging.Logger
}

// NewService wires a responder around the given LLM client.
func NewService(client LLMClient, model string, history *History, logger *logging.Logger) *Service {
	if client == nil {
		panic("responder: llm client cannot be nil")
	}
	if history == nil {
		history = NewHistory(10, 1000)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		client:  client,
		model:   model,
		history: history,
		logger:  logger,
	}
}

// Generate produces a reply to userMessage for the given remote party and
// records the exchange in the rolling history. Failures are returned as
// *GenerationError so callers can pick an apology by kind.
func (s *Service) Generate(ctx context.Context, remote, userMessage, systemPrompt string, business *store.BusinessProfile, listings []*store.Listing) (string, error) {
	ctx, span := tracer.Start(ctx, "responder.generate")
	defer span.End()
	span.SetAttributes(attribute.String("realestate.remote", remote))

	messages := append(s.history.Messages(remote), ChatMessage{
		Role:    ChatRoleUser,
		Content: userMessage,
	})

	req := LLMRequest{
		Model:    s.model,
		System:   buildSystemContext(userMessage, systemPrompt, business, listings),
		Messages: messages,
	}

	callCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	resp, err := s.client.Complete(callCtx, req)
	if err != nil {
		genErr := classify(err)
		span.RecordError(genErr)
		s.logger.Error("generation failed", "remote", remote, "kind", string(genErr.Kind), "error", err)
		return "", genErr
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		text = emptyReplyFallback
	}

	s.history.Append(remote, userMessage, text)
	s.logger.Info("reply generated", "remote", remote, "tokens", resp.Usage.TotalTokens)
	return text, nil
}

// History exposes the rolling conversation store, used by the dashboard to
// clear conversations.
func (s *Service) History() *History { return s.history }

// Status reports the responder configuration for the dashboard.
type Status struct {
	Configured          bool   `json:"configured"`
	Model               string `json:"model"`
	ActiveConversations int    `json:"activeConversations"`
}

// Status returns the current responder status.
func (s *Service) Status() Status {
	return Status{
		Configured:          s.client != nil,
		Model:               s.model,
		ActiveConversations: s.history.ActiveConversations(),
	}
}
