package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
)

// Settings is the effective configuration after flags, config file and
// FNENHANCE_* environment variables are merged.
type Settings struct {
	LogLevel      string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogJSON       bool          `json:"log_json" yaml:"log_json" mapstructure:"log_json"`
	RetryDelay    time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
	MaxRetries    int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	OTLPEndpoint  string        `json:"otlp_endpoint" yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	OTLPInsecure  bool          `json:"otlp_insecure" yaml:"otlp_insecure" mapstructure:"otlp_insecure"`
	SampleRatio   float64       `json:"trace_sample_ratio" yaml:"trace_sample_ratio" mapstructure:"trace_sample_ratio"`
	ListenAddr    string        `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen_addr"`
	ThrottleRPS   float64       `json:"throttle_rps" yaml:"throttle_rps" mapstructure:"throttle_rps"`
	ThrottleBurst int           `json:"throttle_burst" yaml:"throttle_burst" mapstructure:"throttle_burst"`
	HTTPRPS       float64       `json:"http_rps" yaml:"http_rps" mapstructure:"http_rps"`
	APIKey        string        `json:"-" yaml:"-" mapstructure:"api_key"`
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fnenhance",
	Short: "Wrap operations with logging, caching, retry, validation and response envelopes",
	Long: `fnenhance demonstrates composable function enhancements: tracing with
performance samples, memoization, fixed-delay retry, input validation and
uniform response envelopes. It can run a demonstration, export what the
enhancers recorded, or serve it over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fnenhance/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml (demo also accepts prometheus)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit JSON logs")
	rootCmd.PersistentFlags().Duration("retry-delay", time.Second, "fixed delay between retry attempts")
	rootCmd.PersistentFlags().Int("max-retries", 3, "retries after the first failed attempt")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP/HTTP endpoint for traces (empty disables export)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	viper.BindPFlag("retry_delay", rootCmd.PersistentFlags().Lookup("retry-delay"))
	viper.BindPFlag("max_retries", rootCmd.PersistentFlags().Lookup("max-retries"))
	viper.BindPFlag("otlp_endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	viper.BindEnv("api_key")
	viper.SetDefault("otlp_insecure", true)
	viper.SetDefault("trace_sample_ratio", 1.0)
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("throttle_rps", 0.0)
	viper.SetDefault("throttle_burst", 1)
	viper.SetDefault("http_rps", 50.0)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".fnenhance"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FNENHANCE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// LoadSettings returns the merged configuration
func LoadSettings() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("failed to decode config: %w", err)
	}
	if s.MaxRetries < 0 {
		return s, fmt.Errorf("max_retries must be >= 0, got %d", s.MaxRetries)
	}
	if s.RetryDelay < 0 {
		return s, fmt.Errorf("retry_delay must be >= 0, got %s", s.RetryDelay)
	}
	if s.SampleRatio < 0 || s.SampleRatio > 1 {
		return s, fmt.Errorf("trace_sample_ratio must be within [0, 1], got %g", s.SampleRatio)
	}
	return s, nil
}
