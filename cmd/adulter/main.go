// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

// Adulter turns natural-language notes into calendar actions. It runs
// as an interactive prompt by default, as an HTTP token-stream service
// with -serve, or as an MCP tool server with -mcp.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/VladRad03/Adulter/pkg/approval"
	"github.com/VladRad03/Adulter/pkg/config"
	"github.com/VladRad03/Adulter/pkg/llm"
	"github.com/VladRad03/Adulter/pkg/mcpserver"
	"github.com/VladRad03/Adulter/pkg/orchestrator"
	"github.com/VladRad03/Adulter/pkg/roles"
	"github.com/VladRad03/Adulter/pkg/server"
	"github.com/VladRad03/Adulter/pkg/telemetry"
	"github.com/VladRad03/Adulter/pkg/tools"
	"github.com/VladRad03/Adulter/pkg/tools/canvas"
	"github.com/VladRad03/Adulter/pkg/tools/googlecal"
	"github.com/VladRad03/Adulter/pkg/tools/research"
	"github.com/VladRad03/Adulter/pkg/tools/webhook"
	"github.com/VladRad03/Adulter/pkg/transcript"
)

const (
	serviceName    = "adulter"
	serviceVersion = "0.2.0"
)

const exampleInput = "I have a dentist appointment on March 3rd at 2pm, " +
	"and I want to study for my algorithms exam for two hours on Thursday evening."

func main() {
	configPath := flag.String("config", "", "path to config file")
	serve := flag.Bool("serve", false, "run the HTTP token-stream service")
	mcpMode := flag.Bool("mcp", false, "serve the tool registry over MCP stdio")
	goalsFile := flag.String("goals", "", "read goals from a file and interpret them")
	autoApprove := flag.Bool("yes", false, "approve all proposed actions without prompting")
	flag.Parse()

	if err := run(*configPath, *serve, *mcpMode, *goalsFile, *autoApprove); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string, serve, mcpMode bool, goalsFile string, autoApprove bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitWithConfig(serviceName, serviceVersion, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	provider := buildProvider(cfg)
	metrics, err := telemetry.NewConversationMetrics()
	if err != nil {
		return err
	}

	dispatcher, err := buildDispatcher(cfg, provider, metrics)
	if err != nil {
		return err
	}

	if mcpMode {
		return mcpserver.New(serviceName, serviceVersion, dispatcher).ServeStdio()
	}

	registry := roles.BuiltinRegistry()
	if cfg.Orchestrator.RolesFile != "" {
		if err := registry.LoadManifest(cfg.Orchestrator.RolesFile); err != nil {
			return err
		}
	}
	if cfg.Orchestrator.InitialRole != "" {
		if err := registry.SetInitial(cfg.Orchestrator.InitialRole); err != nil {
			return err
		}
	}

	var store transcript.Store
	if cfg.Orchestrator.TranscriptDB != "" {
		sqlStore, err := transcript.OpenSQLite(cfg.Orchestrator.TranscriptDB)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	var gate approval.Gate = &approval.ConsoleGate{In: os.Stdin, Out: os.Stdout}
	if serve || autoApprove {
		gate = approval.StaticGate{Decision: approval.Approve}
	}

	interp, err := buildInterpreter(cfg, provider, registry, dispatcher, gate, store, metrics)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve {
		var opts []server.Option
		if store != nil {
			opts = append(opts, server.WithTranscripts(store))
		}
		return server.New(interp, opts...).ListenAndServe(ctx, cfg.Server.Addr)
	}
	if goalsFile != "" {
		return runGoals(ctx, interp, goalsFile)
	}
	return runInteractive(ctx, interp)
}

func buildDispatcher(cfg *config.Config, provider llm.Provider, metrics *telemetry.ConversationMetrics) (*tools.Dispatcher, error) {
	registry := tools.NewRegistry()

	calendar := googlecal.New(googlecal.Options{
		ClientID:     cfg.Calendar.ClientID,
		ClientSecret: cfg.Calendar.ClientSecret,
		RefreshToken: cfg.Calendar.RefreshToken,
		TokenURL:     cfg.Calendar.TokenURL,
		BaseURL:      cfg.Calendar.BaseURL,
		CalendarID:   cfg.Calendar.CalendarID,
	})
	registry.MustRegister(calendar.Specs()...)

	lms := canvas.New(canvas.Options{
		BaseURL:   cfg.Canvas.BaseURL,
		Token:     cfg.Canvas.Token,
		CacheFile: cfg.Canvas.CacheFile,
	})
	registry.MustRegister(lms.Specs()...)

	hook := webhook.New(webhook.Options{URL: cfg.Webhook.URL})
	registry.MustRegister(hook.Specs()...)

	researcher := research.New(provider, cfg.LLM.Model)
	registry.MustRegister(researcher.Specs()...)

	toolTimeout, err := time.ParseDuration(cfg.Orchestrator.ToolTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid tool_timeout: %w", err)
	}
	return tools.NewDispatcher(registry,
		tools.WithTimeout(toolTimeout),
		tools.WithMetrics(metrics),
	), nil
}

func buildProvider(cfg *config.Config) llm.Provider {
	switch cfg.LLM.Provider {
	case "mock":
		return &llm.MockProvider{Response: "all tasks complete"}
	default:
		return llm.NewOllama(cfg.LLM.BaseURL)
	}
}

func buildInterpreter(cfg *config.Config, provider llm.Provider, registry *roles.Registry, dispatcher *tools.Dispatcher, gate approval.Gate, store transcript.Store, metrics *telemetry.ConversationMetrics) (*orchestrator.Interpreter, error) {
	turnTimeout, err := time.ParseDuration(cfg.Orchestrator.TurnTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid turn_timeout: %w", err)
	}
	opts := []orchestrator.Option{
		orchestrator.WithModel(cfg.LLM.Model),
		orchestrator.WithMode(orchestrator.Mode(cfg.Orchestrator.Mode)),
		orchestrator.WithMaxRounds(cfg.Orchestrator.MaxRounds),
		orchestrator.WithCompletionMarker(cfg.Orchestrator.CompletionMarker),
		orchestrator.WithTurnTimeout(turnTimeout),
		orchestrator.WithGate(gate),
		orchestrator.WithMetrics(metrics),
	}
	if store != nil {
		opts = append(opts, orchestrator.WithRecorder(store))
	}
	return orchestrator.New(provider, registry, dispatcher, opts...)
}

func runGoals(ctx context.Context, interp *orchestrator.Interpreter, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read goals file: %w", err)
	}
	result, err := interp.Interpret(ctx, string(raw))
	if err != nil {
		return err
	}
	fmt.Printf("[%s] %s\n", result.Outcome, result.Text)
	return nil
}

func runInteractive(ctx context.Context, interp *orchestrator.Interpreter) error {
	fmt.Println("Adulter calendar assistant. Type a request, \"example\" for a sample, or \"quit\" to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "example":
			input = exampleInput
			fmt.Println(input)
		}

		result, err := interp.Interpret(ctx, input)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Printf("\n[%s] %s\n\n", result.Outcome, result.Text)

		if ctx.Err() != nil {
			return nil
		}
	}
}
