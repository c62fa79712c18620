package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mindful-mate/backend/internal/config"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
)

// ErrModelUnavailable is returned when the model cannot be resolved or does not answer the probe.
var ErrModelUnavailable = errors.New("generative model unavailable")

var errEmptyOutput = errors.New("model returned empty output")

// Service wraps one chat model behind a prompt chain with per-call generation profiles.
type Service struct {
	modelName string
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService resolves the configured model, builds it and verifies it answers.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	modelName := cfg.Model
	if cfg.Provider == config.ProviderOllama {
		catalog, err := NewOllamaCatalog(cfg.OllamaHost, cfg.Timeout())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		modelName, err = ResolveModel(ctx, catalog, cfg.Model, cfg.ModelFamily)
		if err != nil {
			return nil, err
		}
	}

	chatModel, err := cfg.NewChatModel(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create chat model: %v", ErrModelUnavailable, err)
	}

	return NewServiceWithModel(ctx, chatModel, modelName)
}

// NewServiceWithModel compiles the chain around an existing model and runs the readiness probe.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, modelName string) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: nil chat model", ErrModelUnavailable)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	svc := &Service{
		modelName: modelName,
		chain:     runnable,
	}

	if err := svc.probe(ctx); err != nil {
		return nil, err
	}
	observability.Component("ai").WithField("model", modelName).Info("model verified")
	return svc, nil
}

// ModelName returns the resolved model identifier.
func (s *Service) ModelName() string {
	return s.modelName
}

// Generate runs one completion with the given profile.
func (s *Service) Generate(ctx context.Context, profile Profile, system string, history []*schema.Message, query string) (string, error) {
	return s.generate(ctx, profile.Options(), system, history, query)
}

// Ping performs a short quick-profile generation for health checks.
func (s *Service) Ping(ctx context.Context) error {
	if _, err := s.Generate(ctx, ProfileQuick, healthSystemPrompt, nil, "Reply with the single word OK."); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

func (s *Service) probe(ctx context.Context) error {
	if _, err := s.generate(ctx, probeOptions, healthSystemPrompt, nil, "Say 'Ready'"); err != nil {
		return fmt.Errorf("%w: probe generation failed: %v", ErrModelUnavailable, err)
	}
	return nil
}

func (s *Service) generate(ctx context.Context, opts GenerationOptions, system string, history []*schema.Message, query string) (string, error) {
	input := map[string]any{
		"system":  system,
		"history": history,
		"query":   query,
	}

	msg, err := s.chain.Invoke(ctx, input, compose.WithChatModelOption(
		model.WithTemperature(opts.Temperature),
		model.WithMaxTokens(opts.MaxTokens),
	))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", errEmptyOutput
	}
	return strings.TrimSpace(msg.Content), nil
}

const healthSystemPrompt = "You are a health check endpoint. Answer as briefly as possible."
