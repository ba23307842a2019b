package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// runConfig is the YAML run configuration. API keys come from the
// environment, never from the file.
type runConfig struct {
	Provider    string  `yaml:"provider" validate:"required,oneof=openai anthropic"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Workers     int     `yaml:"workers"`

	// Year is the fiscal year the numeric dataset is built from.
	Year int `yaml:"year" validate:"required,gte=2012"`

	Template string `yaml:"template" validate:"required"`
	Example  string `yaml:"example"`
	Output   string `yaml:"output" validate:"required"`
	// Sessions, when set, is where the field conversations are exported
	// after the run.
	Sessions string `yaml:"sessions"`

	Municipality      municipalityConfig `yaml:"municipality"`
	InterMunicipality *epciConfig        `yaml:"inter_municipality"`

	// Answerer wires the ask_researcher tool when present.
	Answerer *answererConfig `yaml:"answerer"`
}

type municipalityConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Siren string `yaml:"siren" validate:"required"`
}

type epciConfig struct {
	Name string `yaml:"name" validate:"required"`
	Code string `yaml:"code" validate:"required"`
}

type answererConfig struct {
	Provider string `yaml:"provider" validate:"required,oneof=perplexity cohere"`
	Model    string `yaml:"model" validate:"required"`
}

func loadConfig(path string) (*runConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(runConfig)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
