package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config defines the application configuration structure
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Output  OutputConfig  `mapstructure:"output"`
	Process ProcessConfig `mapstructure:"process"`
}

// SourceConfig defines where settlement data is fetched from
type SourceConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Ticker          string `mapstructure:"ticker"`
	RequestInterval int    `mapstructure:"request_interval"`
	MaxRetries      int    `mapstructure:"max_retries"`
	LookAhead       int    `mapstructure:"look_ahead"`
}

// OutputConfig defines where the merged dataset is written
type OutputConfig struct {
	TempOutputDir     string `mapstructure:"temp_output_dir"`
	ProcessedDataDir  string `mapstructure:"processed_data_dir"`
	VendorDir         string `mapstructure:"vendor_dir"`
	OverwriteExisting bool   `mapstructure:"overwrite_existing"`
	ParquetEnabled    bool   `mapstructure:"parquet_enabled"`
}

// ProcessConfig defines the run window
type ProcessConfig struct {
	DeploymentDate     string `mapstructure:"deployment_date"`
	StartDate          string `mapstructure:"start_date"`
	OnlyDeploymentDate bool   `mapstructure:"only_deployment_date"`
}

// LoadConfig loads configuration from file and overrides with environment variables
func LoadConfig(path string) (Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CONTANGO")

	// Source mappings
	viper.BindEnv("source.base_url", "CONTANGO_BASE_URL")
	viper.BindEnv("source.ticker", "CONTANGO_TICKER")
	viper.BindEnv("source.request_interval", "CONTANGO_REQUEST_INTERVAL")
	viper.BindEnv("source.max_retries", "CONTANGO_MAX_RETRIES")
	viper.BindEnv("source.look_ahead", "CONTANGO_LOOK_AHEAD")

	// Output mappings
	viper.BindEnv("output.temp_output_dir", "CONTANGO_TEMP_OUTPUT_DIR")
	viper.BindEnv("output.processed_data_dir", "CONTANGO_PROCESSED_DATA_DIR")
	viper.BindEnv("output.vendor_dir", "CONTANGO_VENDOR_DIR")
	viper.BindEnv("output.overwrite_existing", "CONTANGO_OVERWRITE_EXISTING")
	viper.BindEnv("output.parquet_enabled", "CONTANGO_PARQUET_ENABLED")

	// Process mappings
	viper.BindEnv("process.deployment_date", "CONTANGO_DEPLOYMENT_DATE")
	viper.BindEnv("process.start_date", "CONTANGO_START_DATE")
	viper.BindEnv("process.only_deployment_date", "CONTANGO_ONLY_DEPLOYMENT_DATE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("Config file not found at %s, falling back to environment variables\n", path)
		} else {
			fmt.Printf("Error reading config file %s: %v, falling back to environment variables\n", path, err)
		}
	}

	// Environment variables take precedence over config file values
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)

	return config, nil
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	// Source defaults
	if config.Source.BaseURL == "" {
		config.Source.BaseURL = "https://markets.cboe.com/us/futures/market_statistics/historical_data/products/csv"
	}
	if config.Source.Ticker == "" {
		config.Source.Ticker = "VX"
	}
	if config.Source.RequestInterval == 0 {
		config.Source.RequestInterval = 5000
	}
	if config.Source.MaxRetries == 0 {
		config.Source.MaxRetries = 5
	}
	if config.Source.LookAhead == 0 {
		config.Source.LookAhead = 12
	}

	// Output defaults
	if config.Output.TempOutputDir == "" {
		config.Output.TempOutputDir = "./output"
	}
	if config.Output.ProcessedDataDir == "" {
		config.Output.ProcessedDataDir = "./processed"
	}
	if config.Output.VendorDir == "" {
		config.Output.VendorDir = "vixcentral"
	}

	// Process defaults: deployment date is the current UTC date, the
	// start date trails it by one day.
	if config.Process.DeploymentDate == "" {
		config.Process.DeploymentDate = time.Now().UTC().Format("20060102")
	}
	if config.Process.StartDate == "" {
		deployment, err := time.Parse("20060102", config.Process.DeploymentDate)
		if err == nil {
			config.Process.StartDate = deployment.AddDate(0, 0, -1).Format("20060102")
		}
	}
}

// DeploymentDate parses the configured deployment date
func (c *Config) DeploymentDate() (time.Time, error) {
	t, err := time.Parse("20060102", c.Process.DeploymentDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deployment date %q: %w", c.Process.DeploymentDate, err)
	}
	return t, nil
}

// StartDate parses the configured process start date
func (c *Config) StartDate() (time.Time, error) {
	t, err := time.Parse("20060102", c.Process.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: %w", c.Process.StartDate, err)
	}
	return t, nil
}
