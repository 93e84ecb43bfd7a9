package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/export"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	WorkspaceDir   string   `mapstructure:"workspace_dir" yaml:"workspace_dir"`
	DefaultOptions []string `mapstructure:"default_options" yaml:"default_options"`

	// Cleaning
	OutlierMethod     string  `mapstructure:"outlier_method" yaml:"outlier_method"`
	IQRMultiplier     float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	MinOutlierSamples int     `mapstructure:"min_outlier_samples" yaml:"min_outlier_samples"`
	NormalizeStrict   bool    `mapstructure:"normalize_strict" yaml:"normalize_strict"`

	// Export
	ExportFormat            string `mapstructure:"export_format" yaml:"export_format"`
	ExportIncludeMetadata   bool   `mapstructure:"export_include_metadata" yaml:"export_include_metadata"`
	ExportIncludeStatistics bool   `mapstructure:"export_include_statistics" yaml:"export_include_statistics"`
	ExportCompress          bool   `mapstructure:"export_compress" yaml:"export_compress"`

	ChartMaxPoints int `mapstructure:"chart_max_points" yaml:"chart_max_points"`

	// HTTP server
	ServerAddr          string   `mapstructure:"server_addr" yaml:"server_addr"`
	ServerMaxUploadMB   int      `mapstructure:"server_max_upload_mb" yaml:"server_max_upload_mb"`
	ServerRatePerMinute int      `mapstructure:"server_rate_per_minute" yaml:"server_rate_per_minute"`
	ServerRateBurst     int      `mapstructure:"server_rate_burst" yaml:"server_rate_burst"`
	ServerCORSOrigins   []string `mapstructure:"server_cors_origins" yaml:"server_cors_origins"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".qdata"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.qdata/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("QDATA")
	v.AutomaticEnv()

	v.SetDefault("workspace_dir", "")
	v.SetDefault("default_options", []string{string(cleaning.RemoveNulls), string(cleaning.StandardizeFormat)})
	v.SetDefault("outlier_method", string(cleaning.OutlierIQR))
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("min_outlier_samples", 4)
	v.SetDefault("normalize_strict", false)
	v.SetDefault("export_format", string(export.CSV))
	v.SetDefault("export_include_metadata", true)
	v.SetDefault("export_include_statistics", false)
	v.SetDefault("export_compress", false)
	v.SetDefault("chart_max_points", 100)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("server_max_upload_mb", 32)
	v.SetDefault("server_rate_per_minute", 120)
	v.SetDefault("server_rate_burst", 20)
	v.SetDefault("server_cors_origins", []string{"http://localhost:3000"})

	dir, err := defaultDir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = filepath.Join(dir, "workspace")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks option ids, cleaning settings and the export format.
func (c *Global) Validate() error {
	if _, err := cleaning.ParseOptions(c.DefaultOptions); err != nil {
		return fmt.Errorf("default_options: %w", err)
	}
	if err := c.CleaningConfig().Validate(); err != nil {
		return err
	}
	if _, err := export.ParseFormat(c.ExportFormat); err != nil {
		return fmt.Errorf("export_format: %w", err)
	}
	if c.ServerMaxUploadMB < 0 {
		return fmt.Errorf("server_max_upload_mb must not be negative")
	}
	return nil
}

// CleaningConfig maps cleaning settings onto the pipeline configuration.
func (c *Global) CleaningConfig() cleaning.Config {
	cc := cleaning.DefaultConfig()
	cc.OutlierMethod = cleaning.OutlierMethod(c.OutlierMethod)
	cc.IQRMultiplier = c.IQRMultiplier
	if c.MinOutlierSamples > 0 {
		cc.MinOutlierSamples = c.MinOutlierSamples
	}
	cc.NormalizeStrict = c.NormalizeStrict
	return cc
}

// ExportOptions returns the configured export toggles.
func (c *Global) ExportOptions() export.Options {
	return export.Options{
		IncludeMetadata:   c.ExportIncludeMetadata,
		IncludeStatistics: c.ExportIncludeStatistics,
		Compress:          c.ExportCompress,
	}
}
