package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/enrolpulse/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set enrolpulse configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded, showing defaults")
		}
		c := effectiveConfig()
		if c.RulesFile != "" {
			fmt.Fprintf(out, "rules_file: %s\n", c.RulesFile)
		}
		fmt.Fprintf(out, "on_error: %s\n", c.OnError)
		fmt.Fprintf(out, "top_n: %d\n", c.TopN)
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "charts: %t\n", c.Charts)
		fmt.Fprintf(out, "region_column: %s\n", c.RegionColumn)
		fmt.Fprintf(out, "age_0_5_column: %s\n", c.Age0To5Column)
		fmt.Fprintf(out, "age_5_17_column: %s\n", c.Age5To17Column)
		fmt.Fprintf(out, "age_18_column: %s\n", c.Age18Column)
		if c.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", c.Sheet)
		}
		if c.SQLDriver != "" {
			fmt.Fprintf(out, "sql_driver: %s\n", c.SQLDriver)
			fmt.Fprintf(out, "sql_dsn: %s\n", mask(c.SQLDSN))
			fmt.Fprintf(out, "sql_table: %s\n", c.SQLTable)
		}
		if c.LogFile != "" {
			fmt.Fprintf(out, "log_file: %s\n", c.LogFile)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "chart_format: %s\n", c.ChartFormat)
		fmt.Fprintf(out, "chart_scale: %.2f\n", c.ChartScale)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := *effectiveConfig()
		switch key {
		case "rules_file":
			c.RulesFile = val
		case "on_error":
			c.OnError = strings.ToLower(val)
		case "top_n":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for top_n: %w", err)
			}
			c.TopN = i
		case "output_dir":
			c.OutputDir = val
		case "charts":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for charts: %w", err)
			}
			c.Charts = b
		case "region_column":
			c.RegionColumn = val
		case "age_0_5_column":
			c.Age0To5Column = val
		case "age_5_17_column":
			c.Age5To17Column = val
		case "age_18_column":
			c.Age18Column = val
		case "sheet":
			c.Sheet = val
		case "sql_driver":
			c.SQLDriver = strings.ToLower(val)
		case "sql_dsn":
			c.SQLDSN = val
		case "sql_table":
			c.SQLTable = val
		case "log_file":
			c.LogFile = val
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		case "chart_format":
			c.ChartFormat = strings.ToLower(val)
		case "chart_scale":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for chart_scale: %w", err)
			}
			c.ChartScale = f
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.SaveFS(appFs, &c, cfgFile); err != nil {
			return err
		}
		cfg = &c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
