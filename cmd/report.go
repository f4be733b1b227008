package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/enrolpulse/internal/analysis"
	"github.com/KaramelBytes/enrolpulse/internal/canon"
	cfgpkg "github.com/KaramelBytes/enrolpulse/internal/config"
	"github.com/KaramelBytes/enrolpulse/internal/loader"
	"github.com/KaramelBytes/enrolpulse/internal/render"
	"github.com/KaramelBytes/enrolpulse/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RulesFileName is discovered upwards from the working directory when no
// rules file is configured.
const RulesFileName = "enrolpulse.rules.yaml"

var (
	rpRules     string
	rpOnError   string
	rpTop       int
	rpOutDir    string
	rpCharts    bool
	rpXLSX      bool
	rpJSON      bool
	rpMarkdown  bool
	rpSheet     string
	rpDelimiter string
	rpRegionCol string
	rpAge05Col  string
	rpAge517Col string
	rpAge18Col  string
	rpDriver    string
	rpDSN       string
	rpTable     string
	rpQuiet     bool
)

var reportCmd = &cobra.Command{
	Use:   "report [files...]",
	Short: "Rank regions by total enrolment from CSV/TSV/XLSX files or a SQL table",
	Example: `  enrolpulse report data/api_data_aadhar_enrolment_*.csv --charts --out-dir out
  enrolpulse report --driver sqlite --dsn enrol.db --table enrolment --on-error skip`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := reportConfig(cmd)
		if err := cfgpkg.Validate(c); err != nil {
			return err
		}

		rulesPath, err := resolveRulesPath(c.RulesFile)
		if err != nil {
			return err
		}
		rules, err := canon.LoadRules(appFs, rulesPath)
		if err != nil {
			return err
		}
		if rulesPath != "" && !rpQuiet {
			fmt.Fprintf(out, "Using rules from %s (%d entries)\n", rulesPath, rules.Len())
		}

		res, err := loadRecords(cmd, c, args)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
		logger.Info("records loaded", zap.Int("records", len(res.Records)), zap.Strings("sources", res.Sources))

		sum, err := analysis.Run(res.Records, rules, analysis.Options{OnError: c.OnError, TopN: c.TopN})
		if err != nil {
			return err
		}
		sum.RunID = uuid.NewString()
		logger.Info("ranking built",
			zap.String("run_id", sum.RunID),
			zap.Int("retained", sum.RetainedRecords),
			zap.Int("discarded", sum.Discarded),
			zap.Int("skipped", sum.Skipped),
			zap.Int("entities", sum.DistinctCanonical),
		)

		if !rpQuiet {
			render.Console(out, sum)
			fmt.Fprintln(out)
			render.AgeBrackets(out, sum)
			for _, w := range sum.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
			}
		}
		return writeArtefacts(cmd, c, sum)
	},
}

// reportConfig layers changed flags over the loaded configuration.
func reportConfig(cmd *cobra.Command) *cfgpkg.Global {
	c := *effectiveConfig()
	f := cmd.Flags()
	if f.Changed("rules") {
		c.RulesFile = rpRules
	}
	if f.Changed("on-error") {
		c.OnError = strings.ToLower(strings.TrimSpace(rpOnError))
	}
	if f.Changed("top") {
		c.TopN = rpTop
	}
	if f.Changed("out-dir") {
		c.OutputDir = rpOutDir
	}
	if f.Changed("charts") {
		c.Charts = rpCharts
	}
	if f.Changed("sheet") {
		c.Sheet = rpSheet
	}
	if f.Changed("region-col") {
		c.RegionColumn = rpRegionCol
	}
	if f.Changed("age-0-5-col") {
		c.Age0To5Column = rpAge05Col
	}
	if f.Changed("age-5-17-col") {
		c.Age5To17Column = rpAge517Col
	}
	if f.Changed("age-18-col") {
		c.Age18Column = rpAge18Col
	}
	if f.Changed("driver") {
		c.SQLDriver = rpDriver
	}
	if f.Changed("dsn") {
		c.SQLDSN = rpDSN
	}
	if f.Changed("table") {
		c.SQLTable = rpTable
	}
	return &c
}

// resolveRulesPath returns the configured path, or a rules file found
// upwards from the working directory, or "" for the built-in table.
func resolveRulesPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", nil
	}
	p, err := utils.FindUp(appFs, wd, RulesFileName)
	if errors.Is(err, utils.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

func loadRecords(cmd *cobra.Command, c *cfgpkg.Global, args []string) (*loader.Result, error) {
	cols := loader.Columns{
		Region:    c.RegionColumn,
		Age0To5:   c.Age0To5Column,
		Age5To17:  c.Age5To17Column,
		Age18Plus: c.Age18Column,
	}
	if c.SQLTable != "" || c.SQLDriver != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either files or --driver/--dsn/--table, not both")
		}
		driver := c.SQLDriver
		if driver == "" {
			driver = loader.DriverSQLite
		}
		db, err := loader.OpenSQL(driver, c.SQLDSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if !rpQuiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Reading table %s via %s...\n", c.SQLTable, driver)
		}
		return loader.LoadSQL(cmd.Context(), db, c.SQLTable, cols)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no input: pass files or --driver/--dsn/--table")
	}

	files, err := loader.Expand(appFs, args)
	if err != nil {
		return nil, err
	}
	opt := loader.DefaultOptions()
	opt.Columns = cols
	opt.Sheet = c.Sheet
	switch rpDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", rpDelimiter)
	}
	if !rpQuiet {
		opt.Progress = func(i, total int, path string) {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] Loading %s...\n", i, total, filepath.Base(path))
		}
	}
	return loader.Load(appFs, files, opt)
}

func writeArtefacts(cmd *cobra.Command, c *cfgpkg.Global, sum *analysis.Summary) error {
	if !rpJSON && !rpMarkdown && !rpXLSX && !c.Charts {
		return nil
	}
	out := cmd.OutOrStdout()
	dir := c.OutputDir
	if err := utils.EnsureDir(appFs, dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	wrote := func(path string) {
		logger.Debug("artefact written", zap.String("path", path))
		if !rpQuiet {
			fmt.Fprintf(out, "✓ Wrote %s\n", path)
		}
	}
	if rpJSON {
		b, err := utils.PrettyJSON(sum)
		if err != nil {
			return err
		}
		p := filepath.Join(dir, "summary.json")
		if err := utils.SafeWriteFile(appFs, p, b); err != nil {
			return err
		}
		wrote(p)
	}
	if rpMarkdown {
		p := filepath.Join(dir, "summary.md")
		if err := utils.SafeWriteFile(appFs, p, []byte(sum.Markdown())); err != nil {
			return err
		}
		wrote(p)
	}
	if rpXLSX {
		p := filepath.Join(dir, "summary.xlsx")
		if err := render.Workbook(appFs, p, sum); err != nil {
			return err
		}
		wrote(p)
	}
	if c.Charts {
		paths, err := render.Charts(appFs, dir, sum, render.ChartOptions{Format: c.ChartFormat, Scale: c.ChartScale})
		for _, p := range paths {
			wrote(p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&rpRules, "rules", "", "YAML rules file (default: built-in table, or "+RulesFileName+" found upwards)")
	reportCmd.Flags().StringVar(&rpOnError, "on-error", "abort", "what to do with a bad record: abort | skip")
	reportCmd.Flags().IntVar(&rpTop, "top", 10, "size of the top and bottom tables")
	reportCmd.Flags().StringVarP(&rpOutDir, "out-dir", "o", ".", "directory for written artefacts")
	reportCmd.Flags().BoolVar(&rpCharts, "charts", false, "write top, bottom and age bracket charts")
	reportCmd.Flags().BoolVar(&rpXLSX, "xlsx", false, "write summary.xlsx")
	reportCmd.Flags().BoolVar(&rpJSON, "json", false, "write summary.json")
	reportCmd.Flags().BoolVar(&rpMarkdown, "markdown", false, "write summary.md")
	reportCmd.Flags().StringVar(&rpSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	reportCmd.Flags().StringVar(&rpDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	reportCmd.Flags().StringVar(&rpRegionCol, "region-col", "state", "column holding the region name")
	reportCmd.Flags().StringVar(&rpAge05Col, "age-0-5-col", "age_0_5", "column holding the 0-5 count")
	reportCmd.Flags().StringVar(&rpAge517Col, "age-5-17-col", "age_5_17", "column holding the 5-17 count")
	reportCmd.Flags().StringVar(&rpAge18Col, "age-18-col", "age_18_greater", "column holding the 18+ count")
	reportCmd.Flags().StringVar(&rpDriver, "driver", "", "SQL driver: sqlite | postgres")
	reportCmd.Flags().StringVar(&rpDSN, "dsn", "", "SQL data source name")
	reportCmd.Flags().StringVar(&rpTable, "table", "", "SQL table to read")
	reportCmd.Flags().BoolVarP(&rpQuiet, "quiet", "q", false, "suppress console tables and progress")
}
