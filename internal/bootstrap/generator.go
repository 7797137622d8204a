package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/config"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/llm"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/llm/anthropic"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/llm/openai"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
)

// ClassificationPolicy is the resilience policy for model calls with the
// retry and breaker settings taken from config.
func ClassificationPolicy(cfg config.Config) resilience.Policy {
	policy := resilience.ClassificationPolicy()
	if cfg.LLMRetryMaxAttempts > 0 {
		policy.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	}
	if cfg.LLMBreakerOpenSecs > 0 {
		policy.BreakerOpenTimeout = time.Duration(cfg.LLMBreakerOpenSecs) * time.Second
	}
	policy.BreakerEnabled = cfg.LLMBreakerEnabled
	return policy
}

// NewGenerator builds the configured text generator behind the rate limit
// and the executor. A nil executor gets one built from ClassificationPolicy.
func NewGenerator(cfg config.Config, executor *resilience.Executor) (ports.TextGenerator, error) {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	var provider ports.TextGenerator
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case config.ProviderAnthropic:
		client, err := anthropic.New(anthropic.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
			BaseURL:   cfg.AnthropicBaseURL,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init anthropic generator: %w", err)
		}
		provider = client
	case config.ProviderOpenAI:
		client, err := openai.New(openai.Config{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai generator: %w", err)
		}
		provider = client
	case config.ProviderOllama:
		model := cfg.LLMModel
		if model == "" {
			model = "llama3.1:8b"
		}
		provider = ollama.New(cfg.OllamaURL, model, timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	if executor == nil {
		executor = resilience.NewExecutor(ClassificationPolicy(cfg))
	}
	limited := llm.Limit(provider, cfg.LLMRequestsPerSecond, cfg.LLMBurst)
	return llm.Guard(limited, executor, "llm_classify"), nil
}
