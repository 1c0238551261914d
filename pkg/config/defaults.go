package config

const (
	defaultGitHubRef     = "main"
	defaultGitHubAPIBase = "https://api.github.com"
	defaultGitHubRawBase = "https://raw.githubusercontent.com"

	defaultSourceExtension = ".move"
	defaultSourceLanguage  = "Move"

	defaultSynthesisTarget    = "https://api.anthropic.com"
	defaultSynthesisModel     = "claude-3-haiku-20240307"
	defaultSynthesisMaxTokens = 1000
	defaultSynthesisInterval  = "1s"

	defaultAzureAPIVersion = "2023-09-15-preview"

	defaultFineTuneBaseModel = "davinci-002"

	defaultChatMaxTokens   = 100
	defaultChatTemperature = 1.0
	defaultChatTopP        = 0.5

	defaultHTTPTimeout = "2m"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		GitHub: GitHubConfig{
			Ref:     defaultGitHubRef,
			APIBase: defaultGitHubAPIBase,
			RawBase: defaultGitHubRawBase,
		},
		Source: SourceConfig{
			Extension: defaultSourceExtension,
			Language:  defaultSourceLanguage,
		},
		Synthesis: SynthesisConfig{
			Target:          defaultSynthesisTarget,
			Model:           defaultSynthesisModel,
			MaxTokens:       defaultSynthesisMaxTokens,
			RequestInterval: defaultSynthesisInterval,
		},
		Azure: AzureConfig{
			APIVersion: defaultAzureAPIVersion,
		},
		FineTune: FineTuneConfig{
			BaseModel: defaultFineTuneBaseModel,
		},
		Chat: ChatConfig{
			MaxTokens:   defaultChatMaxTokens,
			Temperature: defaultChatTemperature,
			TopP:        defaultChatTopP,
		},
		HTTP: HTTPConfig{
			Timeout: defaultHTTPTimeout,
		},
	}
}
