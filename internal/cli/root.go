package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "questclaim",
	Short: "questclaim - discover and claim quests on Crew3 community boards",
	Long: `questclaim walks the quest boards of the communities you joined, completes
the social-network actions twitter quests ask for, answers quiz and text quests
from a stored answer file and submits claims, pacing every call with jittered
delays.

Runs are strictly sequential: one account, one request at a time.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for questclaim.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("questclaim v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.questclaim/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// secretKeys have no default value, so they must be bound to the environment explicitly
var secretKeys = []string{
	"platform.cookie",
	"platform.captcha_token",
	"platform.http_proxy",
	"platform.https_proxy",
	"platform.no_proxy",
	"twitter.consumer_key",
	"twitter.consumer_secret",
	"twitter.access_token",
	"twitter.access_token_secret",
	"twitter.handle",
	"claim.answers_file",
	"phrases.api_key",
	"phrases.base_url",
	"schedule.metrics_addr",
	"output.json",
}

// initConfig reads in .env, config file and ENV variables
func initConfig() {
	// A missing .env is fine; credentials may come from the real environment
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.questclaim")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	registerDefaults(model.DefaultConfig())

	// Read in environment variables that match QUESTCLAIM_*, e.g. QUESTCLAIM_TWITTER_ACCESS_TOKEN
	viper.SetEnvPrefix("QUESTCLAIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range secretKeys {
		_ = viper.BindEnv(key)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults exposes every default to viper so env overrides resolve
func registerDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaults("", tree)
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

// loadConfig resolves the effective configuration: flags > env > file > defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Phrases.APIKey == "" {
		cfg.Phrases.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose switches to debug level
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
