package cmd

import (
	"fmt"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/export"
	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List cleaning options, export formats and chart types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Cleaning options (applied in this order):")
		for _, o := range cleaning.Catalog {
			flag := " "
			if o.Default {
				flag = "*"
			}
			note := ""
			if o.NoOp {
				note = " (accepted, no effect)"
			}
			fmt.Printf("  %s %-22s %s: %s%s\n", flag, o.ID, o.Label, o.Description, note)
		}
		fmt.Println("\nExport formats:")
		for _, f := range export.Formats {
			note := ""
			if f.External {
				note = " (external encoder)"
			}
			fmt.Printf("  %-6s %s: %s%s\n", f.ID, f.Label, f.Description, note)
		}
		fmt.Println("\nExport options:")
		for _, o := range export.OptionCatalog {
			fmt.Printf("  %-20s %s (default %t)\n", o.ID, o.Description, o.Default)
		}
		fmt.Println("\nChart types:")
		for _, c := range analysis.ChartTypes {
			fmt.Printf("  %-8s %s\n", c.ID, c.Label)
		}
		fmt.Printf("\nSupported files: %v\n", parser.Supported())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}
