package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/movetune/movetune/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MOVETUNE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MOVETUNE_GITHUB_REPO, MOVETUNE_AZURE_ENDPOINT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MOVETUNE_GITHUB_REPO, MOVETUNE_SYNTHESIS_MODEL, etc.
	v.SetEnvPrefix("MOVETUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// GitHub
	v.SetDefault("github.repo", d.GitHub.Repo)
	v.SetDefault("github.ref", d.GitHub.Ref)
	v.SetDefault("github.api_base", d.GitHub.APIBase)
	v.SetDefault("github.raw_base", d.GitHub.RawBase)

	// Source
	v.SetDefault("source.extension", d.Source.Extension)
	v.SetDefault("source.language", d.Source.Language)

	// Synthesis
	v.SetDefault("synthesis.target", d.Synthesis.Target)
	v.SetDefault("synthesis.model", d.Synthesis.Model)
	v.SetDefault("synthesis.max_tokens", d.Synthesis.MaxTokens)
	v.SetDefault("synthesis.request_interval", d.Synthesis.RequestInterval)

	// Azure
	v.SetDefault("azure.endpoint", d.Azure.Endpoint)
	v.SetDefault("azure.deployment", d.Azure.Deployment)
	v.SetDefault("azure.api_version", d.Azure.APIVersion)

	// Fine-tune
	v.SetDefault("finetune.base_model", d.FineTune.BaseModel)

	// Chat
	v.SetDefault("chat.max_tokens", d.Chat.MaxTokens)
	v.SetDefault("chat.temperature", d.Chat.Temperature)
	v.SetDefault("chat.top_p", d.Chat.TopP)

	// Dataset
	v.SetDefault("dataset.output", d.Dataset.Output)

	// HTTP
	v.SetDefault("http.timeout", d.HTTP.Timeout)
}
