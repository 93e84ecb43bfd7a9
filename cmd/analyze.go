package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/KaramelBytes/qdata-clean/internal/table"
	"github.com/KaramelBytes/qdata-clean/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaClean      []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|upload>",
	Short: "Produce a Markdown summary of a data file or upload",
	Long: `Analyze parses a CSV/JSON file (or reads an upload from the workspace when no
such file exists), optionally cleans it, and prints a Markdown report with the
column profile, summary statistics and sample rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		var (
			name      string
			t         *table.Table
			processed bool
		)
		if _, err := os.Stat(ref); err == nil {
			parsed, err := parser.ParseFile(ref)
			if err != nil {
				return err
			}
			name, t = filepath.Base(ref), parsed
		} else {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			u, err := ws.Resolve(ref)
			if err != nil {
				return err
			}
			name, t, processed = u.Name, u.Table, u.Processed
		}

		if len(anaClean) > 0 {
			opts, err := cleaning.ParseOptions(anaClean)
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}
			res, err := p.Run(t, opts)
			if err != nil {
				return err
			}
			t, processed = res.Table, true
		}

		md := analysis.BuildReport(name, t, processed, analysis.ReportOptions{SampleRows: anaSampleRows}).Markdown()
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().StringSliceVar(&anaClean, "clean", nil, "cleaning options to apply before reporting")
}
