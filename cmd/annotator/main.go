package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/julianshen/annotator/internal/config"

	// Register providers via init() side effects.
	_ "github.com/julianshen/annotator/internal/provider/anthropic"
	_ "github.com/julianshen/annotator/internal/provider/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath   string
	modelFlag    string
	providerFlag string
	apiKeyFlag   string
)

func versionString() string {
	return fmt.Sprintf("annotator %s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "annotator",
		Short: "Generate missing documentation for Python and TypeScript code",
		Long: `annotator finds functions and HTTP endpoints without documentation,
drafts docstrings and JSDoc comments with an LLM, and lets you review each
proposal before it is written. Accepted endpoint docs can be mirrored into an
OpenAPI spec and a Postman collection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model name")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "override provider name")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key for the selected provider (default from ANTHROPIC_API_KEY or config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path, loads the config, and applies any
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if modelFlag != "" {
		cfg.Provider.Model = modelFlag
	}
	if providerFlag != "" {
		cfg.Provider.Default = providerFlag
	}
	applyAPIKey(cfg, apiKeyFlag)

	return cfg, nil
}

// applyAPIKey makes key the configured key of the selected provider.
func applyAPIKey(cfg *config.Config, key string) {
	if key == "" {
		return
	}
	if cfg.Provider.Default == "anthropic" {
		cfg.Provider.Anthropic.APIKeySource = "config"
		cfg.Provider.Anthropic.APIKey = key
		return
	}
	for i := range cfg.Provider.OpenAI {
		if cfg.Provider.OpenAI[i].Name == cfg.Provider.Default {
			cfg.Provider.OpenAI[i].APIKeySource = "config"
			cfg.Provider.OpenAI[i].APIKey = key
		}
	}
}
