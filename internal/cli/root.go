package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/leadradar/internal/model"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool

	// cfg is the effective configuration, loaded before every command runs
	cfg *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "leadradar",
	Short: "LeadRadar - BD lead discovery, scoring and outreach scheduling",
	Long: `LeadRadar finds projects worth reaching out to and keeps the outreach on schedule.

It scans pasted text, listing pages and watchlists for candidate project links,
qualifies each candidate, scores it against your ICP and playbooks, and stores
the result as an opportunity. Converted opportunities become projects with
multi-touch outreach sequences; "today" shows what needs attention now.

Analysis runs offline and deterministic unless an AI provider is enabled and
your plan allows it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		if verbose {
			cfg.Log.Level = "debug"
		}
		return initLogger(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leadradar v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.leadradar/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".leadradar"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// LEADRADAR_AI_ENABLED overrides ai.enabled, and so on
	viper.SetEnvPrefix("LEADRADAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering config defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every DefaultConfig key known to viper so env overrides bind
func registerDefaults() error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return eris.Wrap(err, "marshal default config")
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return eris.Wrap(err, "unmarshal default config")
	}
	setDefaults("", tree)

	// omitempty keys are absent from the marshalled defaults
	for _, key := range []string{"ai.api_key", "ai.base_url", "ai.positioning", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		_ = viper.BindEnv(key)
	}
	return nil
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig decodes viper state over DefaultConfig and fills provider credentials from the environment
func loadConfig() (*model.Config, error) {
	c := model.DefaultConfig()
	if err := viper.Unmarshal(c); err != nil {
		return nil, eris.Wrap(err, "decode config")
	}
	applyEnvCredentials(c)

	if c.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, eris.Wrap(err, "find home directory")
		}
		c.Store.Path = filepath.Join(home, ".leadradar", "leadradar.db")
	}
	return c, nil
}

// applyEnvCredentials reads the conventional provider variables when the config has none
func applyEnvCredentials(c *model.Config) {
	switch strings.ToLower(c.AI.Provider) {
	case "openai":
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// initLogger builds the global zap logger; console format is for humans, json for machines
func initLogger(lc model.LogConfig) error {
	var zapCfg zap.Config
	if lc.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return eris.Wrap(err, "parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
