package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Orchestrator.InitialRole != "calendar_agent" {
		t.Errorf("expected default initial role calendar_agent, got %s", cfg.Orchestrator.InitialRole)
	}
	if cfg.Orchestrator.MaxRounds != 20 {
		t.Errorf("expected default max rounds 20, got %d", cfg.Orchestrator.MaxRounds)
	}
	if cfg.Orchestrator.CompletionMarker != "all tasks complete" {
		t.Errorf("expected default completion marker, got %q", cfg.Orchestrator.CompletionMarker)
	}
	if cfg.Calendar.CalendarID != "primary" {
		t.Errorf("expected default calendar id primary, got %s", cfg.Calendar.CalendarID)
	}
	if cfg.Server.Addr != "127.0.0.1:5001" {
		t.Errorf("expected default server addr, got %s", cfg.Server.Addr)
	}
}

func TestLoadEnv(t *testing.T) {
	os.Setenv("ADULTER_LLM_PROVIDER", "mock")
	defer os.Unsetenv("ADULTER_LLM_PROVIDER")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "mock" {
		t.Errorf("expected provider mock from env, got %s", cfg.LLM.Provider)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()

	raw := `
orchestrator:
  initial_role: "data_interpreter"
  mode: "handoff"
  max_rounds: 6
webhook:
  url: "http://localhost:9999/hook"
canvas:
  base_url: "https://canvas.example.edu/api/v1"
  token: "secret"
`
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Orchestrator.InitialRole != "data_interpreter" {
		t.Errorf("expected initial role from file, got %s", cfg.Orchestrator.InitialRole)
	}
	if cfg.Orchestrator.Mode != "handoff" {
		t.Errorf("expected mode handoff, got %s", cfg.Orchestrator.Mode)
	}
	if cfg.Orchestrator.MaxRounds != 6 {
		t.Errorf("expected max rounds 6, got %d", cfg.Orchestrator.MaxRounds)
	}
	if cfg.Webhook.URL != "http://localhost:9999/hook" {
		t.Errorf("expected webhook url from file, got %s", cfg.Webhook.URL)
	}
	if cfg.Canvas.Token != "secret" {
		t.Errorf("expected canvas token from file")
	}
	// Defaults still apply for keys the file does not set.
	if cfg.Orchestrator.CompletionMarker != "all tasks complete" {
		t.Errorf("expected default completion marker to survive file load")
	}
}
