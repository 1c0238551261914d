package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --endpoint
// on "movetune submit", "movetune status", and "movetune chat").
type Flag struct {
	// Name is the long flag name (e.g. "repo").
	Name string

	// Shorthand is the one-letter short flag (e.g. "r"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "github.repo").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddFloat64Flag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagRepo            = "repo"
	FlagRef             = "ref"
	FlagExtension       = "extension"
	FlagOutput          = "output"
	FlagSynthTarget     = "synthesis-target"
	FlagSynthModel      = "synthesis-model"
	FlagSynthMaxTokens  = "synthesis-max-tokens"
	FlagRequestInterval = "request-interval"
	FlagEndpoint        = "endpoint"
	FlagDeployment      = "deployment"
	FlagAPIVersion      = "api-version"
	FlagBaseModel       = "base-model"
	FlagChatMaxTokens   = "chat-max-tokens"
	FlagTemperature     = "temperature"
	FlagTopP            = "top-p"
	FlagHTTPTimeout     = "http-timeout"
)

// Flags is the shared registry of flags that map onto config keys.
var Flags = FlagSet{
	FlagRepo: {
		Name:        "repo",
		Shorthand:   "r",
		ViperKey:    "github.repo",
		Description: "GitHub repository slug (owner/name) to pull source files from",
	},
	FlagRef: {
		Name:        "ref",
		ViperKey:    "github.ref",
		Description: "Git ref (branch, tag, or commit) to read",
	},
	FlagExtension: {
		Name:        "extension",
		Shorthand:   "e",
		ViperKey:    "source.extension",
		Description: "Source file extension to include (e.g. .move)",
	},
	FlagOutput: {
		Name:        "output",
		Shorthand:   "o",
		ViperKey:    "dataset.output",
		Description: "Dataset output path (default: <owner>-<name>_dataset.jsonl)",
	},
	FlagSynthTarget: {
		Name:        "synthesis-target",
		ViperKey:    "synthesis.target",
		Description: "Anthropic API base URL for prompt synthesis",
	},
	FlagSynthModel: {
		Name:        "synthesis-model",
		Shorthand:   "m",
		ViperKey:    "synthesis.model",
		Description: "Model used to synthesize prompts for unannotated files",
	},
	FlagSynthMaxTokens: {
		Name:        "synthesis-max-tokens",
		ViperKey:    "synthesis.max_tokens",
		Description: "Max tokens for each synthesis response",
	},
	FlagRequestInterval: {
		Name:        "request-interval",
		ViperKey:    "synthesis.request_interval",
		Description: "Pause before each synthesis request (e.g. 1s)",
	},
	FlagEndpoint: {
		Name:        "endpoint",
		ViperKey:    "azure.endpoint",
		Description: "Azure OpenAI resource endpoint URL",
	},
	FlagDeployment: {
		Name:        "deployment",
		ViperKey:    "azure.deployment",
		Description: "Azure OpenAI deployment name to chat with",
	},
	FlagAPIVersion: {
		Name:        "api-version",
		ViperKey:    "azure.api_version",
		Description: "Azure OpenAI API version",
	},
	FlagBaseModel: {
		Name:        "base-model",
		ViperKey:    "finetune.base_model",
		Description: "Base model to fine-tune",
	},
	FlagChatMaxTokens: {
		Name:        "max-tokens",
		ViperKey:    "chat.max_tokens",
		Description: "Max tokens per completion",
	},
	FlagTemperature: {
		Name:        "temperature",
		ViperKey:    "chat.temperature",
		Description: "Sampling temperature",
	},
	FlagTopP: {
		Name:        "top-p",
		ViperKey:    "chat.top_p",
		Description: "Nucleus sampling probability mass",
	},
	FlagHTTPTimeout: {
		Name:        "http-timeout",
		ViperKey:    "http.timeout",
		Description: "Per-request timeout for outbound HTTP calls (e.g. 2m)",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloat64Flag registers a float64 flag on cmd from the given FlagSet.
func AddFloat64Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultFloat64 returns the default float64 value for a viper key from NewDefaultConfig.
func defaultFloat64(viperKey string) float64 {
	v := viper.New()
	setViperDefaults(v)
	return v.GetFloat64(viperKey)
}
