package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent movetune configuration stored as config.toml
// in the .movetune/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	GitHub    GitHubConfig    `toml:"github"`
	Source    SourceConfig    `toml:"source"`
	Synthesis SynthesisConfig `toml:"synthesis"`
	Azure     AzureConfig     `toml:"azure"`
	FineTune  FineTuneConfig  `toml:"finetune"`
	Chat      ChatConfig      `toml:"chat"`
	Dataset   DatasetConfig   `toml:"dataset"`
	HTTP      HTTPConfig      `toml:"http"`
}

// GitHubConfig holds the source repository settings.
type GitHubConfig struct {
	// Repo is the owner/name slug of the repository to pull source from.
	Repo    string `toml:"repo,omitempty"`
	Ref     string `toml:"ref,omitempty"`
	APIBase string `toml:"api_base,omitempty"`
	RawBase string `toml:"raw_base,omitempty"`
}

// SourceConfig holds source file selection settings.
type SourceConfig struct {
	Extension string `toml:"extension,omitempty"`
	Language  string `toml:"language,omitempty"`
}

// SynthesisConfig holds prompt synthesis settings for files that carry no
// prompt annotation.
type SynthesisConfig struct {
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxTokens uint   `toml:"max_tokens,omitempty"`

	// RequestInterval is the pause before each synthesis request,
	// as a duration string (e.g. "1s").
	RequestInterval string `toml:"request_interval,omitempty"`
}

// AzureConfig holds Azure OpenAI resource settings shared by the submit,
// status, and chat commands.
type AzureConfig struct {
	Endpoint   string `toml:"endpoint,omitempty"`
	Deployment string `toml:"deployment,omitempty"`
	APIVersion string `toml:"api_version,omitempty"`
}

// FineTuneConfig holds fine-tune job settings.
type FineTuneConfig struct {
	BaseModel string `toml:"base_model,omitempty"`
}

// ChatConfig holds completion parameters for the chat loop.
type ChatConfig struct {
	MaxTokens   uint    `toml:"max_tokens,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
	TopP        float64 `toml:"top_p,omitempty"`
}

// DatasetConfig holds dataset output settings. An empty output path derives
// the file name from the repo slug.
type DatasetConfig struct {
	Output string `toml:"output,omitempty"`
}

// HTTPConfig holds settings for outbound HTTP clients.
type HTTPConfig struct {
	// Timeout is the per-request timeout as a duration string (e.g. "2m").
	Timeout string `toml:"timeout,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"github.repo": {
		get: func(c *Config) string { return c.GitHub.Repo },
		set: func(c *Config, v string) error { c.GitHub.Repo = v; return nil },
	},
	"github.ref": {
		get: func(c *Config) string { return c.GitHub.Ref },
		set: func(c *Config, v string) error { c.GitHub.Ref = v; return nil },
	},
	"github.api_base": {
		get: func(c *Config) string { return c.GitHub.APIBase },
		set: func(c *Config, v string) error { c.GitHub.APIBase = v; return nil },
	},
	"github.raw_base": {
		get: func(c *Config) string { return c.GitHub.RawBase },
		set: func(c *Config, v string) error { c.GitHub.RawBase = v; return nil },
	},
	"source.extension": {
		get: func(c *Config) string { return c.Source.Extension },
		set: func(c *Config, v string) error { c.Source.Extension = v; return nil },
	},
	"source.language": {
		get: func(c *Config) string { return c.Source.Language },
		set: func(c *Config, v string) error { c.Source.Language = v; return nil },
	},
	"synthesis.target": {
		get: func(c *Config) string { return c.Synthesis.Target },
		set: func(c *Config, v string) error { c.Synthesis.Target = v; return nil },
	},
	"synthesis.model": {
		get: func(c *Config) string { return c.Synthesis.Model },
		set: func(c *Config, v string) error { c.Synthesis.Model = v; return nil },
	},
	"synthesis.max_tokens": {
		get: func(c *Config) string {
			if c.Synthesis.MaxTokens == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Synthesis.MaxTokens), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for synthesis.max_tokens: %w", err)
			}
			c.Synthesis.MaxTokens = uint(n)
			return nil
		},
	},
	"synthesis.request_interval": {
		get: func(c *Config) string { return c.Synthesis.RequestInterval },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for synthesis.request_interval: %w", err)
			}
			c.Synthesis.RequestInterval = v
			return nil
		},
	},
	"azure.endpoint": {
		get: func(c *Config) string { return c.Azure.Endpoint },
		set: func(c *Config, v string) error { c.Azure.Endpoint = v; return nil },
	},
	"azure.deployment": {
		get: func(c *Config) string { return c.Azure.Deployment },
		set: func(c *Config, v string) error { c.Azure.Deployment = v; return nil },
	},
	"azure.api_version": {
		get: func(c *Config) string { return c.Azure.APIVersion },
		set: func(c *Config, v string) error { c.Azure.APIVersion = v; return nil },
	},
	"finetune.base_model": {
		get: func(c *Config) string { return c.FineTune.BaseModel },
		set: func(c *Config, v string) error { c.FineTune.BaseModel = v; return nil },
	},
	"chat.max_tokens": {
		get: func(c *Config) string {
			if c.Chat.MaxTokens == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Chat.MaxTokens), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.max_tokens: %w", err)
			}
			c.Chat.MaxTokens = uint(n)
			return nil
		},
	},
	"chat.temperature": {
		get: func(c *Config) string {
			if c.Chat.Temperature == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Chat.Temperature, 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.temperature: %w", err)
			}
			c.Chat.Temperature = f
			return nil
		},
	},
	"chat.top_p": {
		get: func(c *Config) string {
			if c.Chat.TopP == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Chat.TopP, 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.top_p: %w", err)
			}
			c.Chat.TopP = f
			return nil
		},
	},
	"dataset.output": {
		get: func(c *Config) string { return c.Dataset.Output },
		set: func(c *Config, v string) error { c.Dataset.Output = v; return nil },
	},
	"http.timeout": {
		get: func(c *Config) string { return c.HTTP.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for http.timeout: %w", err)
			}
			c.HTTP.Timeout = v
			return nil
		},
	},
}
