package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/plagscan/internal/logging"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool
)

// version is set at build time via -ldflags.
var version = "v0.1.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "plagscan",
	Short: "plagscan - web plagiarism checker",
	Long: `plagscan checks a document against the public web.

The text is split into chunks. Each chunk is either recognized as properly
cited, or searched for on the web; the pages found are fetched and compared
to the chunk with a multilingual sentence-embedding model.

The result is a plagiarism percentage plus the best-matching sources.
A high similarity is a signal for a human reviewer, not a verdict.`,
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
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("plagscan %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.plagscan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		v.AddConfigPath(filepath.Join(home, ".plagscan"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}
	configureEnv(v)

	if err := v.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}
}

// configureEnv maps PLAGSCAN_SCAN_CHUNK_SIZE to scan.chunk_size and so on.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("PLAGSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig returns the effective configuration: defaults, then the config
// file, then PLAGSCAN_* variables, then the provider credential variables.
func loadConfig() (*model.Config, error) {
	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := registerDefaults(v, cfg); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyCredentialEnv(cfg, os.Getenv)
	return cfg, nil
}

// registerDefaults registers every leaf of cfg so that AutomaticEnv can
// resolve keys that appear in neither the file nor a flag.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// applyCredentialEnv honors the provider variables used by existing
// deployments when the config leaves the credential empty.
func applyCredentialEnv(cfg *model.Config, getenv func(string) string) {
	if cfg.Search.APIKey == "" {
		switch strings.ToLower(cfg.Search.Provider) {
		case "serpapi":
			cfg.Search.APIKey = getenv("SERPAPI_KEY")
		case "google":
			cfg.Search.APIKey = getenv("GOOGLE_API_KEY")
		}
	}
	if cfg.Search.EngineID == "" {
		cfg.Search.EngineID = getenv("GOOGLE_CSE_ID")
	}

	switch strings.ToLower(cfg.Embedding.Provider) {
	case "openai":
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}
}

func newLogger(cfg *model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
