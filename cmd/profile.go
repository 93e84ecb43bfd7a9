package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile [upload]",
	Short: "Show column types, missing and distinct counts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		u, err := resolveUpload(ws, args)
		if err != nil {
			return err
		}
		cols := analysis.Profile(u.Table)
		fmt.Printf("%s: %d rows, %d columns, quality %d%%\n", u.Name, u.Rows(), len(cols), analysis.QualityScore(u.Table))
		for _, c := range cols {
			fmt.Printf("  %-24s %-8s missing=%d distinct=%d\n", c.Name, c.Type, c.Missing, c.Distinct)
		}
		if extra := analysis.UnprofiledColumns(u.Table); len(extra) > 0 {
			fmt.Fprintf(os.Stderr, "⚠ Warning: columns absent from the first row are not profiled: %s\n", strings.Join(extra, ", "))
		}
		return nil
	},
}

var (
	cleanOptions []string
	cleanDryRun  bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [upload]",
	Short: "Run cleaning steps on an upload",
	Long: `Clean applies the selected options in fixed order: remove_nulls, remove_outliers,
normalize_numbers, standardize_format, aggregate_duplicates. Without --options the
configured default_options are used. Run 'qdata options' for the catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ids := c.DefaultOptions
		if cmd.Flags().Changed("options") {
			ids = cleanOptions
		}
		opts, err := cleaning.ParseOptions(ids)
		if err != nil {
			return err
		}
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		u, err := resolveUpload(ws, args)
		if err != nil {
			return err
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}

		var res *cleaning.Result
		if cleanDryRun {
			res, err = p.Run(u.Table, opts)
		} else {
			_, res, err = ws.Process(u.ID, p, opts)
		}
		if err != nil {
			return err
		}
		for _, s := range res.Steps {
			info, _ := s.Option.Info()
			line := fmt.Sprintf("  %-22s %d → %d rows", s.Option, s.RowsIn, s.RowsOut)
			if info.NoOp {
				line += " (no-op)"
			}
			if len(s.Columns) > 0 {
				line += " [" + strings.Join(s.Columns, ", ") + "]"
			}
			fmt.Println(line)
		}
		if cleanDryRun {
			fmt.Printf("Dry run: %s would have %d rows\n", u.Name, res.Table.Len())
			return nil
		}
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Cleaned %s: %d → %d rows, quality %d%%\n", u.Name, u.Rows(), res.Table.Len(), analysis.QualityScore(res.Table))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringSliceVarP(&cleanOptions, "options", "o", nil, "cleaning options, comma separated")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show the result without saving it")
}
