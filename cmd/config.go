package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/qdata-clean/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set qdata configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("workspace_dir: %s\n", cfg.WorkspaceDir)
		fmt.Printf("default_options: %s\n", strings.Join(cfg.DefaultOptions, ","))
		fmt.Printf("outlier_method: %s\n", cfg.OutlierMethod)
		fmt.Printf("iqr_multiplier: %.3f\n", cfg.IQRMultiplier)
		fmt.Printf("min_outlier_samples: %d\n", cfg.MinOutlierSamples)
		fmt.Printf("normalize_strict: %t\n", cfg.NormalizeStrict)
		fmt.Printf("export_format: %s\n", cfg.ExportFormat)
		fmt.Printf("export_include_metadata: %t\n", cfg.ExportIncludeMetadata)
		fmt.Printf("export_include_statistics: %t\n", cfg.ExportIncludeStatistics)
		fmt.Printf("export_compress: %t\n", cfg.ExportCompress)
		fmt.Printf("chart_max_points: %d\n", cfg.ChartMaxPoints)
		fmt.Printf("server_addr: %s\n", cfg.ServerAddr)
		fmt.Printf("server_max_upload_mb: %d\n", cfg.ServerMaxUploadMB)
		fmt.Printf("server_rate_per_minute: %d\n", cfg.ServerRatePerMinute)
		fmt.Printf("server_rate_burst: %d\n", cfg.ServerRateBurst)
		if len(cfg.ServerCORSOrigins) > 0 {
			fmt.Printf("server_cors_origins: %s\n", strings.Join(cfg.ServerCORSOrigins, ","))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		// edit a copy so a rejected value leaves the loaded config intact
		next := *c
		if err := setConfigKey(&next, key, val); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		*c = next
		fmt.Println("Saved config")
		return nil
	},
}

func setConfigKey(c *cfgpkg.Global, key, val string) error {
	parseInt := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		return b, nil
	}
	splitList := func() []string {
		var out []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var err error
	switch key {
	case "workspace_dir":
		c.WorkspaceDir = val
	case "default_options":
		c.DefaultOptions = splitList()
	case "outlier_method":
		c.OutlierMethod = strings.ToLower(val)
	case "iqr_multiplier":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for iqr_multiplier: %w", perr)
		}
		c.IQRMultiplier = f
	case "min_outlier_samples":
		c.MinOutlierSamples, err = parseInt()
	case "normalize_strict":
		c.NormalizeStrict, err = parseBool()
	case "export_format":
		c.ExportFormat = strings.ToLower(val)
	case "export_include_metadata":
		c.ExportIncludeMetadata, err = parseBool()
	case "export_include_statistics":
		c.ExportIncludeStatistics, err = parseBool()
	case "export_compress":
		c.ExportCompress, err = parseBool()
	case "chart_max_points":
		c.ChartMaxPoints, err = parseInt()
	case "server_addr":
		c.ServerAddr = val
	case "server_max_upload_mb":
		c.ServerMaxUploadMB, err = parseInt()
	case "server_rate_per_minute":
		c.ServerRatePerMinute, err = parseInt()
	case "server_rate_burst":
		c.ServerRateBurst, err = parseInt()
	case "server_cors_origins":
		c.ServerCORSOrigins = splitList()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
