package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clausewise/internal/taxonomy"
)

var taxonomyYAML bool

// taxonomyCmd represents the taxonomy command
var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and validate risk category taxonomies",
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured taxonomy",
	Long: `Show prints the taxonomy selected by taxonomy.path (the built-in one
when unset) as JSON, or as YAML with --yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		tax, err := taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if taxonomyYAML {
			data, err := yaml.Marshal(tax.File())
			if err != nil {
				return fmt.Errorf("encode taxonomy: %w", err)
			}
			_, err = out.Write(data)
			return err
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tax.File())
	},
}

var taxonomyValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a taxonomy file",
	Long: `Validate parses a taxonomy YAML file and checks categories, groups
and phrase lists. It exits non-zero with the first problem found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := taxonomy.Load(args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d categories, %d groups\n",
			args[0], len(tax.Categories()), len(tax.Groups()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
	taxonomyCmd.AddCommand(taxonomyShowCmd)
	taxonomyCmd.AddCommand(taxonomyValidateCmd)

	taxonomyShowCmd.Flags().BoolVar(&taxonomyYAML, "yaml", false, "print YAML instead of JSON")
}
