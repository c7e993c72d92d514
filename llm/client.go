// Package llm provides a unified interface for LLM providers using CloudWeGo Eino.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/ollama/api"

	"github.com/stridehq/stride/types"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider    Provider
	Model       string  // Chat model
	APIKey      string  // Required for OpenAI, Anthropic, Gemini
	BaseURL     string  // Required for Ollama (default: http://localhost:11434)
	MaxTokens   int     // Cap on generated tokens per reply; 0 uses DefaultMaxTokens
	Temperature float32 // Sampling temperature; 0 leaves the provider default
}

// maxTokensPtr returns the configured cap for providers that take an optional
// limit, nil when unset.
func (c Config) maxTokensPtr() *int {
	if c.MaxTokens <= 0 {
		return nil
	}
	v := c.MaxTokens
	return &v
}

// maxTokensOrDefault returns the configured cap for providers that require
// one.
func (c Config) maxTokensOrDefault() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) temperaturePtr() *float32 {
	if c.Temperature <= 0 {
		return nil
	}
	v := c.Temperature
	return &v
}

// Client implements Generator on top of an Eino chat model.
type Client struct {
	cfg Config
}

// NewClient creates a Generator for the configured provider.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Generate sends the system prompt and conversation history to the chat model
// and returns the reply text. Provider errors are wrapped with context but
// otherwise propagated untouched; there is no retry here.
func (c *Client) Generate(ctx context.Context, systemPrompt string, history []types.ChatMessage) (string, error) {
	chatModel, err := NewChatModel(ctx, c.cfg)
	if err != nil {
		return "", fmt.Errorf("create model: %w", err)
	}

	messages := make([]*schema.Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}
	messages = append(messages, toSchemaMessages(history)...)

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return resp.Content, nil
}

// toSchemaMessages converts transport-level chat history to Eino messages.
func toSchemaMessages(history []types.ChatMessage) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, schema.AssistantMessage(m.Content, nil))
		case "system":
			messages = append(messages, schema.SystemMessage(m.Content))
		default:
			messages = append(messages, schema.UserMessage(m.Content))
		}
	}
	return messages
}

// NewChatModel creates a ChatModel instance based on the provider configuration.
// It returns an Eino BaseChatModel that can be used for Generate() or Stream() calls.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			MaxTokens:   cfg.maxTokensPtr(),
			Temperature: cfg.temperaturePtr(),
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
			Options: &api.Options{
				NumPredict:  cfg.maxTokensOrDefault(),
				Temperature: cfg.Temperature,
			},
		})

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.maxTokensOrDefault(),
			Temperature: cfg.temperaturePtr(),
		})

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		// Gemini extension relies on environment variables
		_ = os.Setenv("GOOGLE_API_KEY", cfg.APIKey)
		_ = os.Setenv("GEMINI_API_KEY", cfg.APIKey)

		return gemini.NewChatModel(ctx, &gemini.Config{
			Model: cfg.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, ollama, anthropic, gemini)", cfg.Provider)
	}
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}
