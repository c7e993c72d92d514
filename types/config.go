package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose bool         `mapstructure:"verbose"`
	Config  string       `mapstructure:"config"`
	Server  ServerConfig `mapstructure:"server" validate:"required"`
	Data    DataConfig   `mapstructure:"data" validate:"required"`
	LLM     LLMConfig    `mapstructure:"llm" validate:"omitempty"`
	Prompts PromptConfig `mapstructure:"prompts"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DataConfig holds goal storage configuration
type DataConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite memory"`
	File    string `mapstructure:"file" validate:"omitempty"`
	Format  string `mapstructure:"format" validate:"omitempty,oneof=json yaml toml"`
	Dir     string `mapstructure:"dir"`
}

// LLMConfig holds configuration for LLM integration
type LLMConfig struct {
	Provider  string  `mapstructure:"provider" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	ModelName string  `mapstructure:"modelName" validate:"omitempty,min=1"`
	APIKey    string  `mapstructure:"apiKey" validate:"omitempty,min=1"`
	BaseURL   string  `mapstructure:"baseURL"`
	// MaxOutputTokens caps a single generation; the orchestrator never retries.
	MaxOutputTokens int     `mapstructure:"maxOutputTokens" validate:"omitempty,min=1"`
	Temperature     float64 `mapstructure:"temperature" validate:"omitempty,min=0,max=2"`
}

// PromptConfig holds prompt template override settings
type PromptConfig struct {
	TemplatesDir string `mapstructure:"templatesDir"`
}
