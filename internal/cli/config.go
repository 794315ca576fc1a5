package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/leadradar/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage LeadRadar configuration",
	Long: `Manage LeadRadar configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LEADRADAR_*, e.g. LEADRADAR_AI_ENABLED=true)
3. Config file (~/.leadradar/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Display the effective configuration after defaults, config file and environment are merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		shown := *cfg
		shown.AI.APIKey = maskSecret(shown.AI.APIKey)

		yamlData, err := yaml.Marshal(&shown)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}

		fmt.Println(rule)
		fmt.Println("  Effective Configuration")
		fmt.Println(rule)
		fmt.Println()
		fmt.Println(string(yamlData))
		fmt.Println(rule)
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (LEADRADAR_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)")
		fmt.Println("  3. Config file (~/.leadradar/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.leadradar/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return eris.Wrap(err, "find home directory")
		}

		configDir := filepath.Join(home, ".leadradar")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return eris.Errorf("config file already exists: %s\nUse 'leadradar config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return eris.Wrap(err, "create config directory")
		}

		defaultCfg := model.DefaultConfig()
		defaultCfg.Store.Path = filepath.Join(configDir, "leadradar.db")
		defaultCfg.Cache.DiskDir = filepath.Join(configDir, "cache")

		yamlData, err := yaml.Marshal(defaultCfg)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}

		f, err := os.Create(configPath)
		if err != nil {
			return eris.Wrap(err, "create config file")
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = eris.Wrap(closeErr, "close config file")
			}
		}()

		// Helper for writing with error checking
		printf := func(format string, a ...any) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(f, format, a...)
		}

		printf("# LeadRadar Configuration File\n")
		printf("#\n")
		printf("# Configuration hierarchy (highest to lowest priority):\n")
		printf("#   1. CLI flags\n")
		printf("#   2. Environment variables (LEADRADAR_*)\n")
		printf("#   3. This config file\n")
		printf("#   4. Built-in defaults\n")
		printf("#\n")
		printf("# Provider analysis needs ai.enabled, a credential and a paid ai.plan\n")
		printf("# (starter, pro or enterprise). Otherwise analysis runs in offline mock mode.\n\n")
		printf("%s", yamlData)
		printf("\n# API Keys (recommended to use environment variables instead):\n")
		printf("#   export OPENAI_API_KEY=sk-...\n")
		printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
		printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")
		if err != nil {
			return eris.Wrap(err, "write config")
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  leadradar config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
