package cmd

import (
	"fmt"

	"github.com/KaramelBytes/enrolpulse/internal/canon"
	"github.com/KaramelBytes/enrolpulse/internal/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	rlRules string
	rlForce bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect or create region name rules",
}

// loadRulesForCmd resolves --rules, then rules_file, then discovery.
func loadRulesForCmd(cmd *cobra.Command) (*canon.RuleSet, string, error) {
	path := effectiveConfig().RulesFile
	if cmd.Flags().Changed("rules") {
		path = rlRules
	}
	path, err := resolveRulesPath(path)
	if err != nil {
		return nil, "", err
	}
	rs, err := canon.LoadRules(appFs, path)
	return rs, path, err
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, path, err := loadRulesForCmd(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if path == "" {
			fmt.Fprintln(out, "Source: built-in")
		} else {
			fmt.Fprintf(out, "Source: %s\n", path)
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Key", "Action", "Canonical"})
		table.SetAutoFormatHeaders(false)
		for _, e := range rs.Entries() {
			if e.Discard {
				table.Append([]string{e.Key, canon.Discarded.String(), ""})
				continue
			}
			table.Append([]string{e.Key, canon.Mapped.String(), e.Label})
		}
		table.Render()
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the built-in rule table as a YAML rules file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if ok, _ := afero.Exists(appFs, path); ok && !rlForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		b, err := yaml.Marshal(canon.DefaultRules())
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}
		header := "# enrolpulse region rules\n" +
			"# aliases map a normalized raw label to its canonical name; discard drops records.\n" +
			"# Set extend_defaults: true to layer entries over the built-in table.\n"
		if err := utils.SafeWriteFile(appFs, path, append([]byte(header), b...)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
		return nil
	},
}

var rulesResolveCmd = &cobra.Command{
	Use:   "resolve <label...>",
	Short: "Show how raw region labels resolve",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, _, err := loadRulesForCmd(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, raw := range args {
			label, outcome := rs.Resolve(raw)
			switch outcome {
			case canon.Discarded:
				fmt.Fprintf(out, "%q -> (discarded)\n", raw)
			default:
				fmt.Fprintf(out, "%q -> %q (%s)\n", raw, label, outcome)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesInitCmd)
	rulesCmd.AddCommand(rulesResolveCmd)
	rulesCmd.PersistentFlags().StringVar(&rlRules, "rules", "", "YAML rules file (default: built-in table)")
	rulesInitCmd.Flags().BoolVar(&rlForce, "force", false, "overwrite an existing file")
}
