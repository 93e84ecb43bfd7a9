package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	statsColumn string
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [upload]",
	Short: "Summary statistics for numeric columns",
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
		var all []analysis.SummaryStats
		if statsColumn != "" {
			s, ok := analysis.Summarize(u.Table, statsColumn)
			if !ok {
				fmt.Printf("No numeric data in column %q\n", statsColumn)
				return nil
			}
			all = []analysis.SummaryStats{s}
		} else {
			all = analysis.SummarizeAll(u.Table)
		}
		if statsJSON {
			b, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		if len(all) == 0 {
			fmt.Println("(no numeric columns)")
			return nil
		}
		fmt.Printf("%-20s %6s %12s %12s %12s %12s %12s\n", "column", "count", "mean", "median", "min", "max", "std")
		for _, s := range all {
			fmt.Printf("%-20s %6d %12.4f %12.4f %12.4f %12.4f %12.4f\n", s.Column, s.Count, s.Mean, s.Median, s.Min, s.Max, s.StdDev)
		}
		return nil
	},
}

var (
	chartX     string
	chartY     string
	chartLimit int
	chartJSON  bool
)

var chartCmd = &cobra.Command{
	Use:   "chart [upload]",
	Short: "Prepare x/y chart points from two columns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chartX == "" || chartY == "" {
			return fmt.Errorf("--x and --y are required")
		}
		c, err := requireConfig()
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
		limit := c.ChartMaxPoints
		if chartLimit > 0 && chartLimit < limit {
			limit = chartLimit
		}
		points := analysis.ChartPoints(u.Table, chartX, chartY, limit)
		if chartJSON {
			b, err := json.MarshalIndent(points, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Printf("%d points (numeric columns: %s)\n", len(points), strings.Join(analysis.NumericColumns(u.Table), ", "))
		for _, p := range points {
			fmt.Printf("  %-10s x=%-16s y=%g\n", p.Name, p.X.String(), p.Y)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chartCmd)
	statsCmd.Flags().StringVarP(&statsColumn, "column", "c", "", "only this column")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")
	chartCmd.Flags().StringVar(&chartX, "x", "", "x-axis column")
	chartCmd.Flags().StringVar(&chartY, "y", "", "y-axis column")
	chartCmd.Flags().IntVar(&chartLimit, "limit", 0, "max points (capped by chart_max_points)")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print JSON")
}
