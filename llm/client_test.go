package llm

import (
	"testing"

	"github.com/stridehq/stride/types"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
	}{
		{"openai", "openai", false},
		{"ollama", "ollama", false},
		{"anthropic", "anthropic", false},
		{"gemini", "gemini", false},
		{"unknown", "watson", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultModelForProvider(t *testing.T) {
	for _, provider := range []string{ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini} {
		if DefaultModelForProvider(provider) == "" {
			t.Errorf("DefaultModelForProvider(%q) returned empty model", provider)
		}
	}
	if got := DefaultModelForProvider("watson"); got != "" {
		t.Errorf("DefaultModelForProvider(unknown) = %q, want empty", got)
	}
}

func TestConfigGenerationOptions(t *testing.T) {
	var zero Config
	if zero.maxTokensPtr() != nil {
		t.Error("maxTokensPtr() on zero config should be nil")
	}
	if zero.temperaturePtr() != nil {
		t.Error("temperaturePtr() on zero config should be nil")
	}
	if got := zero.maxTokensOrDefault(); got != DefaultMaxTokens {
		t.Errorf("maxTokensOrDefault() = %d, want %d", got, DefaultMaxTokens)
	}

	cfg := Config{MaxTokens: 1024, Temperature: 0.7}
	if got := cfg.maxTokensPtr(); got == nil || *got != 1024 {
		t.Errorf("maxTokensPtr() = %v, want 1024", got)
	}
	if got := cfg.maxTokensOrDefault(); got != 1024 {
		t.Errorf("maxTokensOrDefault() = %d, want 1024", got)
	}
	if got := cfg.temperaturePtr(); got == nil || *got != 0.7 {
		t.Errorf("temperaturePtr() = %v, want 0.7", got)
	}
}

func TestToSchemaMessages(t *testing.T) {
	history := []types.ChatMessage{
		{Role: "user", Content: "I want to learn Spanish"},
		{Role: "assistant", Content: "Great goal! Here are some tasks."},
		{Role: "system", Content: "be brief"},
	}

	messages := toSchemaMessages(history)
	if len(messages) != 3 {
		t.Fatalf("toSchemaMessages() returned %d messages, want 3", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" || messages[2].Role != "system" {
		t.Errorf("roles = %s, %s, %s", messages[0].Role, messages[1].Role, messages[2].Role)
	}
	if messages[0].Content != "I want to learn Spanish" {
		t.Errorf("content = %q", messages[0].Content)
	}
}
