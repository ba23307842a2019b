// Command fiche resolves a municipal-profile template for one commune (and
// optionally its intercommunality) and writes the filled template as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	anthropicapi "github.com/liushuangls/go-anthropic/v2"
	openaiapi "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ficheapp/fiche/agents"
	"github.com/ficheapp/fiche/agents/providers"
	anthropicprov "github.com/ficheapp/fiche/agents/providers/anthropic"
	cohereprov "github.com/ficheapp/fiche/agents/providers/cohere"
	openaiprov "github.com/ficheapp/fiche/agents/providers/openai"
	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/engine"
	"github.com/ficheapp/fiche/ofgl"
	"github.com/ficheapp/fiche/profile"
	"github.com/ficheapp/fiche/prompts"
	"github.com/ficheapp/fiche/tools"
	"github.com/ficheapp/fiche/tools/answerer"
	"github.com/ficheapp/fiche/tools/finances"
	"github.com/ficheapp/fiche/tools/webscraper"
	"github.com/ficheapp/fiche/tools/websearch"
)

const perplexityBaseURL = "https://api.perplexity.ai"

func main() {
	configPath := flag.String("config", "fiche.yaml", "run configuration file")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), *configPath, logger); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, configPath string, logger *zap.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	tpl, err := profile.Load(cfg.Template, cfg.Example)
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	ofglClient := ofgl.NewClient(ofgl.WithLogger(logger))
	registry, err := buildRegistry(cfg, ofglClient, logger)
	if err != nil {
		return err
	}

	agent := agents.NewToolAgent(registry.Definitions(),
		agents.WithProvider(provider),
		agents.WithInstructions(prompts.ToolAgentInstructions),
		agents.WithModel(cfg.Model),
		agents.WithTemperature(cfg.Temperature),
		agents.WithMaxTokens(cfg.MaxTokens),
		agents.WithName("fiche"),
	)

	dataset, bindings := buildSubjects(ctx, cfg, ofglClient)

	eng := engine.New(agent, registry, logger, engine.WithWorkers(cfg.Workers))
	report, err := eng.Resolve(ctx, tpl, bindings, dataset)
	if err != nil {
		return err
	}
	for _, res := range report.Sections {
		if res.Err != nil {
			logger.Warn("section incomplete",
				zap.String("section", res.Section),
				zap.String("subject", res.Subject),
				zap.Error(res.Err),
			)
		}
	}

	if err := writeTemplate(cfg.Output, tpl); err != nil {
		return err
	}
	logger.Info("profile written",
		zap.String("run", report.RunID),
		zap.String("output", cfg.Output),
		zap.Int("input_tokens", report.Usage.InputTokens),
		zap.Int("output_tokens", report.Usage.OutputTokens),
	)

	if cfg.Sessions != "" {
		if err := exportSessions(cfg.Sessions, eng.Sessions()); err != nil {
			logger.Warn("session export failed", zap.Error(err))
		}
	}
	return nil
}

// buildProvider picks the tool-capable provider driving the resolution agent.
func buildProvider(cfg *runConfig) (providers.Provider, error) {
	switch cfg.Provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return openaiprov.New(openaiapi.NewClient(key)), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is not set")
		}
		return anthropicprov.New(anthropicapi.NewClient(key)), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func buildRegistry(cfg *runConfig, ofglClient *ofgl.Client, logger *zap.Logger) (*tools.Registry, error) {
	list := []tools.Tool{
		webscraper.New().Entry(),
		finances.New(ofglClient).Entry(),
	}
	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		list = append(list, websearch.New(websearch.WithAPIKey(key)).Entry())
	}
	if cfg.Answerer != nil {
		researchAgent, err := buildAnswererAgent(cfg.Answerer)
		if err != nil {
			return nil, err
		}
		list = append(list, answerer.New(researchAgent).Entry())
	}
	return tools.NewRegistry(list, tools.WithLogger(logger)), nil
}

// buildAnswererAgent wires the plain agent behind the ask_researcher tool:
// Perplexity through the OpenAI-compatible provider, or cohere chat.
func buildAnswererAgent(cfg *answererConfig) (*agents.Agent, error) {
	var provider providers.Provider
	switch cfg.Provider {
	case "perplexity":
		key := os.Getenv("PERPLEXITY_API_KEY")
		if key == "" {
			return nil, errors.New("PERPLEXITY_API_KEY is not set")
		}
		clientCfg := openaiapi.DefaultConfig(key)
		clientCfg.BaseURL = perplexityBaseURL
		provider = openaiprov.New(openaiapi.NewClientWithConfig(clientCfg))
	case "cohere":
		key := os.Getenv("CO_API_KEY")
		if key == "" {
			return nil, errors.New("CO_API_KEY is not set")
		}
		provider = cohereprov.New(cohereclient.NewClient(cohereclient.WithToken(key)))
	default:
		return nil, fmt.Errorf("unknown answerer provider %q", cfg.Provider)
	}
	return agents.NewAgent(
		agents.WithProvider(provider),
		agents.WithModel(cfg.Model),
		agents.WithName("researcher"),
	), nil
}

// buildSubjects fetches the trusted numeric dataset and binds the template
// subject keys to the configured entities.
func buildSubjects(ctx context.Context, cfg *runConfig, client *ofgl.Client) (ofgl.Dataset, engine.Bindings) {
	dataset := ofgl.Dataset{
		cfg.Municipality.Name: client.CommuneFinances(ctx, cfg.Municipality.Siren, cfg.Year),
	}
	bindings := engine.Bindings{
		"municipality": {Identifier: cfg.Municipality.Siren, Name: cfg.Municipality.Name},
	}
	if epci := cfg.InterMunicipality; epci != nil {
		dataset[epci.Name] = client.EPCIFinances(ctx, epci.Code, cfg.Year)
		bindings["inter_municipality"] = engine.Binding{Identifier: epci.Code, Name: epci.Name}
	}
	return dataset, bindings
}

func writeTemplate(path string, tpl *profile.Template) error {
	out, err := json.MarshalIndent(tpl, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// exportSessions dumps every field conversation for audit.
func exportSessions(path string, store *components.SessionStore) error {
	sessions := make(map[string][]components.Message, store.Len())
	for _, key := range store.Keys() {
		sessions[key.String()] = store.History(key)
	}
	out, err := json.MarshalIndent(sessions, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
