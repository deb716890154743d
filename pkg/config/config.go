package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log          LogConfig          `koanf:"log"`
	LLM          LLMConfig          `koanf:"llm"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Calendar     CalendarConfig     `koanf:"calendar"`
	Canvas       CanvasConfig       `koanf:"canvas"`
	Webhook      WebhookConfig      `koanf:"webhook"`
	Server       ServerConfig       `koanf:"server"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // ollama, mock
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type OrchestratorConfig struct {
	InitialRole      string `koanf:"initial_role"`
	Mode             string `koanf:"mode"` // auto, handoff
	MaxRounds        int    `koanf:"max_rounds"`
	CompletionMarker string `koanf:"completion_marker"`
	TurnTimeout      string `koanf:"turn_timeout"` // Go duration
	ToolTimeout      string `koanf:"tool_timeout"` // Go duration
	RolesFile        string `koanf:"roles_file"`   // optional YAML role manifest
	TranscriptDB     string `koanf:"transcript_db"`
}

type CalendarConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RefreshToken string `koanf:"refresh_token"`
	TokenURL     string `koanf:"token_url"`
	BaseURL      string `koanf:"base_url"`
	CalendarID   string `koanf:"calendar_id"`
}

type CanvasConfig struct {
	BaseURL   string `koanf:"base_url"`
	Token     string `koanf:"token"`
	CacheFile string `koanf:"cache_file"`
}

type WebhookConfig struct {
	URL string `koanf:"url"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.base_url", "http://localhost:11434")

	k.Set("orchestrator.initial_role", "calendar_agent")
	k.Set("orchestrator.mode", "auto")
	// Service front ends should keep this low enough to bound latency.
	k.Set("orchestrator.max_rounds", 20)
	k.Set("orchestrator.completion_marker", "all tasks complete")
	k.Set("orchestrator.turn_timeout", "2m")
	k.Set("orchestrator.tool_timeout", "30s")

	k.Set("calendar.token_url", "https://oauth2.googleapis.com/token")
	k.Set("calendar.base_url", "https://www.googleapis.com/calendar/v3")
	k.Set("calendar.calendar_id", "primary")

	k.Set("canvas.cache_file", "assignments.json")

	k.Set("server.addr", "127.0.0.1:5001")

	k.Set("telemetry.exporter", "none")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (ADULTER_LLM_PROVIDER -> llm.provider)
	if err := k.Load(env.Provider("ADULTER_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ADULTER_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
