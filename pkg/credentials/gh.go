package credentials

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ReadGhHostsFile reads the gh CLI's hosts.yml and returns its contents and
// path. Returns nil, "" if the file cannot be read.
func ReadGhHostsFile() ([]byte, string) {
	// gh stores host config at $GH_CONFIG_DIR/hosts.yml,
	// defaulting to ~/.config/gh/hosts.yml.
	var configDir string
	if ghDir := os.Getenv("GH_CONFIG_DIR"); ghDir != "" {
		configDir = ghDir
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, ""
		}
		configDir = filepath.Join(home, ".config", "gh")
	}

	hostsPath := filepath.Join(configDir, "hosts.yml")
	data, err := os.ReadFile(hostsPath)
	if err != nil {
		return nil, ""
	}

	return data, hostsPath
}

// TokenFromGhHosts extracts the github.com oauth token from a gh hosts.yml
// document. Returns "", false when no token is present or the YAML cannot be
// processed.
func TokenFromGhHosts(data []byte) (string, bool) {
	var hosts map[string]struct {
		OauthToken string `yaml:"oauth_token"`
		User       string `yaml:"user"`
	}
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return "", false
	}

	host, ok := hosts["github.com"]
	if !ok || host.OauthToken == "" {
		return "", false
	}

	return host.OauthToken, true
}
