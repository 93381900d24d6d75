package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string
	DryRun  bool

	// Config file
	ConfigFile string

	// Channel access
	BotToken  string
	ChannelID int64
	APIBase   string

	// Storage
	DataDir     string
	CatalogPath string
	MirrorPath  string
	NoWebMirror bool
	StatePath   string
	QueuePath   string

	// Polling
	PollTimeout   time.Duration
	PollInterval  time.Duration
	ExitAfter     time.Duration
	RunContinuous bool

	// Trigger server
	ListenAddr   string
	TriggerToken string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by cobra)
//  2. Environment variables
//  3. .env and .env.local files
//  4. Config file (configFile, or ~/.modelshelf.yaml / ./.modelshelf.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("catalog_path", constants.DefaultCatalogPath)
	v.SetDefault("state_path", constants.DefaultStatePath)
	v.SetDefault("queue_path", constants.DefaultQueuePath)
	v.SetDefault("api_base", constants.DefaultAPIBase)
	v.SetDefault("poll_timeout", constants.DefaultPollTimeout)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".modelshelf")
		// A missing default config file is not an error.
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),
		DryRun:  v.GetBool("dry_run"),

		ConfigFile: v.ConfigFileUsed(),

		BotToken:  strings.TrimSpace(v.GetString("bot_token")),
		ChannelID: v.GetInt64("channel_id"),
		APIBase:   v.GetString("api_base"),

		DataDir:     v.GetString("data_dir"),
		CatalogPath: v.GetString("catalog_path"),
		MirrorPath:  v.GetString("mirror_path"),
		NoWebMirror: v.GetBool("no_write_web_models"),
		StatePath:   v.GetString("state_path"),
		QueuePath:   v.GetString("queue_path"),

		PollTimeout:   v.GetDuration("poll_timeout"),
		PollInterval:  v.GetDuration("poll_interval"),
		ExitAfter:     v.GetDuration("exit_after"),
		RunContinuous: v.GetBool("run_continuous"),

		ListenAddr:   v.GetString("listen_addr"),
		TriggerToken: v.GetString("trigger_token"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	// Millisecond settings kept for deployments configured with them.
	if config.PollInterval == 0 {
		config.PollInterval = time.Duration(v.GetInt64("poll_interval_ms")) * time.Millisecond
	}
	if config.ExitAfter == 0 {
		config.ExitAfter = time.Duration(v.GetInt64("exit_after_ms")) * time.Millisecond
	}
	if config.PollInterval <= 0 {
		config.PollInterval = constants.DefaultPollInterval
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor, dryRun bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	c.DryRun = c.DryRun || dryRun
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. Variables
// already present in the environment are not overwritten, and .env.local
// is read first so it wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
