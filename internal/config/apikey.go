package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveAPIKey returns the API key for a provider. Supported sources are
// "env" (read envVar), "config" (use configValue) and "keyring", which is
// not wired to an OS keychain yet and reads envVar as well. An empty source
// means "env".
func ResolveAPIKey(source, configValue, envVar string) (string, error) {
	switch strings.ToLower(source) {
	case "", "env", "keyring":
		return resolveFromEnv(envVar)
	case "config":
		if configValue == "" {
			return "", fmt.Errorf("api_key_source is 'config' but no api_key value provided")
		}
		return configValue, nil
	default:
		return "", fmt.Errorf("unknown api_key_source: %q", source)
	}
}

// EnvVarName derives the conventional API key variable for a provider
// name, e.g. "openrouter" becomes OPENROUTER_API_KEY.
func EnvVarName(provider string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(provider))
	return name + "_API_KEY"
}

func resolveFromEnv(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable name specified")
	}
	val := strings.TrimSpace(os.Getenv(envVar))
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return val, nil
}
