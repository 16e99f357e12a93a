package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StoreConfig struct {
	RecordsPath  string `toml:"records_path"`
	RulesPath    string `toml:"rules_path"`
	RecordsTable string `toml:"records_table"`
	RulesTable   string `toml:"rules_table"`
}

type PromptConfig struct {
	SBAR string `toml:"sbar"`
}

type Config struct {
	LLM     LLMConfig    `toml:"llm"`
	Stores  StoreConfig  `toml:"stores"`
	Prompts PromptConfig `toml:"prompts"`
}

// DefaultSBARPrompt is the summarization instruction. The two verbs of
// the contract: synthesize only from the values listed in the context
// block, and answer with a single JSON object carrying the four SBAR
// sections. Placeholders: patient id, context block.
const DefaultSBARPrompt = `You are an expert clinical assistant writing a handover note for patient %s.

Synthesize the clinical facts below into a concise SBAR note. Use ONLY the
facts listed; do not invent clinical information that is not present.

<CLINICAL FACTS>
%s
</CLINICAL FACTS>

Respond with a single JSON object, no commentary:
{
  "situation": "<brief current issue / reason for admission>",
  "background": "<relevant history, medications, earlier observations>",
  "assessment": "<current condition, latest vitals, key findings>",
  "recommendation": "<next steps, follow-up actions, escalation if needed>"
}`

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 60,
		},
		Stores: StoreConfig{
			RecordsPath:  "data/medical_records.db",
			RulesPath:    "data/policy_rules.db",
			RecordsTable: "medical_records",
			RulesTable:   "clinical_rules",
		},
		Prompts: PromptConfig{
			SBAR: DefaultSBARPrompt,
		},
	}
}

// Load reads a TOML config file over the defaults, so a partial file
// only overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}
